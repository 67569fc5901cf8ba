package authService

import (
	"Replicaide/internal/api/auth"
	"Replicaide/internal/entity"
	contextPkg "Replicaide/pkg/context"
	jwtPkg "Replicaide/pkg/jwt"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

func (a *authDomainImpl) Login(c context.Context, req auth.LoginUserRequest) (auth.LoginUserResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	user, err := a.findByEmail(c, req.Email)
	if err != nil {
		return auth.LoginUserResponse{}, err
	}

	if user.Password == "" {
		a.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    user.ID,
		}).Warn("Password login attempted on account without password")
		return auth.LoginUserResponse{}, auth.ErrInvalidEmailOrPassword
	}

	if err := a.bcryptUtils.ComparePassword(user.Password, req.Password); err != nil {
		a.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    user.ID,
		}).Warn("Invalid password")
		return auth.LoginUserResponse{}, auth.ErrInvalidEmailOrPassword
	}

	return a.issueToken(c, user)
}

func (a *authDomainImpl) GoogleLoginURL(state string) string {
	return a.googleProvider.AuthCodeURL(state)
}

// LoginGoogle signs in an existing account whose verified Google email
// matches. Unknown emails are rejected like a wrong password.
func (a *authDomainImpl) LoginGoogle(c context.Context, code string) (auth.LoginUserResponse, error) {
	requestID := contextPkg.GetRequestID(c)

	info, err := a.googleProvider.GetUserInfo(c, code)
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Google user info lookup failed")
		return auth.LoginUserResponse{}, auth.ErrUnauthorized
	}

	if !info.VerifiedEmail {
		return auth.LoginUserResponse{}, auth.ErrGoogleUnverifiedEmail
	}

	user, err := a.findByEmail(c, info.Email)
	if err != nil {
		return auth.LoginUserResponse{}, err
	}

	return a.issueToken(c, user)
}

func (a *authDomainImpl) findByEmail(c context.Context, email string) (entity.User, error) {
	requestID := contextPkg.GetRequestID(c)

	repo, err := a.repo.NewClient(false)
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return entity.User{}, err
	}

	user, err := repo.Users.GetByEmail(c, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, auth.ErrUserNotFound) {
		return entity.User{}, auth.ErrInvalidEmailOrPassword
	}
	if err != nil {
		return entity.User{}, err
	}

	return user, nil
}

func (a *authDomainImpl) issueToken(c context.Context, user entity.User) (auth.LoginUserResponse, error) {
	token, expired, err := jwtPkg.Sign(MakeUserData(user), a.cfg.JWTSecret, a.cfg.TokenTTL)
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"error":      err.Error(),
		}).Error("Failed to sign access token")
		return auth.LoginUserResponse{}, err
	}

	return auth.LoginUserResponse{
		AccessToken:      token,
		ExpiresInMinutes: time.Until(time.Unix(expired, 0)).Minutes(),
	}, nil
}

func MakeUserData(user entity.User) map[string]interface{} {
	return map[string]interface{}{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
	}
}
