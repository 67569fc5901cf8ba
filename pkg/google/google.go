package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

type ItfGoogle interface {
	AuthCodeURL(state string) string
	GetUserInfo(ctx context.Context, code string) (UserInfo, error)
}

type googleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

func New(cfg Config) ItfGoogle {
	return &googleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

func (g *googleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// GetUserInfo exchanges an authorization code and reads the profile of the
// account that granted it.
func (g *googleProvider) GetUserInfo(ctx context.Context, code string) (UserInfo, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return UserInfo{}, fmt.Errorf("exchange code: %w", err)
	}

	var info UserInfo
	res, err := resty.NewWithClient(g.config.Client(ctx, token)).R().
		SetContext(ctx).
		SetResult(&info).
		Get(g.userInfoURL)
	if err != nil {
		return UserInfo{}, fmt.Errorf("get user info: %w", err)
	}
	if res.IsError() {
		return UserInfo{}, fmt.Errorf("get user info: %s", res.Status())
	}
	if info.Email == "" {
		return UserInfo{}, errors.New("google account has no email")
	}

	return info, nil
}
