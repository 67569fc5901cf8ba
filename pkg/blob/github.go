package blob

import (
	"Replicaide/pkg/response"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	githubService = "github"
	GithubAPIURL  = "https://api.github.com"
)

var ErrEmptyPayload = errors.New("blob payload is empty")

type GithubConfig struct {
	BaseURL string
	Owner   string
	Repo    string
	Branch  string
	Token   string
	Timeout time.Duration
}

type githubStore struct {
	http *resty.Client
	cfg  GithubConfig
	log  *logrus.Logger
}

type githubContent struct {
	SHA         string `json:"sha"`
	DownloadURL string `json:"download_url"`
}

type githubPutRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type githubPutResponse struct {
	Content githubContent `json:"content"`
}

// NewGithub stores blobs as files of a GitHub repository through the
// contents API.
func NewGithub(cfg GithubConfig, log *logrus.Logger) Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = GithubAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetDebug(false).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeaders(map[string]string{
			"Accept":               "application/vnd.github+json",
			"X-GitHub-Api-Version": "2022-11-28",
		})
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &githubStore{http: client, cfg: cfg, log: log}
}

func (g *githubStore) contentsURL() string {
	return "/repos/{owner}/{repo}/contents/{path}"
}

func (g *githubStore) pathParams() map[string]string {
	return map[string]string{
		"owner": g.cfg.Owner,
		"repo":  g.cfg.Repo,
	}
}

// existingSHA returns the blob sha of path, or "" when the file does not
// exist yet.
func (g *githubStore) existingSHA(ctx context.Context, p string) (string, error) {
	var current githubContent

	req := g.http.R().
		SetContext(ctx).
		SetPathParams(g.pathParams()).
		SetRawPathParam("path", p).
		SetResult(&current)
	if g.cfg.Branch != "" {
		req.SetQueryParam("ref", g.cfg.Branch)
	}

	res, err := req.Get(g.contentsURL())
	if err != nil {
		return "", response.NewUpstreamError(githubService, 0, err)
	}

	switch {
	case res.StatusCode() == http.StatusNotFound:
		return "", nil
	case res.IsError():
		return "", response.NewUpstreamError(githubService, res.StatusCode(),
			fmt.Errorf("lookup %s failed: %s", p, res.Status()))
	}

	return current.SHA, nil
}

func (g *githubStore) Upload(ctx context.Context, data []byte, p string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}

	sha, err := g.existingSHA(ctx, p)
	if err != nil {
		return "", err
	}

	body := githubPutRequest{
		Message: "Add or update " + p,
		Content: base64.StdEncoding.EncodeToString(data),
		SHA:     sha,
		Branch:  g.cfg.Branch,
	}

	var out githubPutResponse
	res, err := g.http.R().
		SetContext(ctx).
		SetPathParams(g.pathParams()).
		SetRawPathParam("path", p).
		SetBody(body).
		SetResult(&out).
		Put(g.contentsURL())
	if err != nil {
		return "", response.NewUpstreamError(githubService, 0, err)
	}
	if res.IsError() {
		return "", response.NewUpstreamError(githubService, res.StatusCode(),
			fmt.Errorf("upload %s failed: %s", p, res.Status()))
	}
	if out.Content.DownloadURL == "" {
		return "", response.NewUpstreamError(githubService, res.StatusCode(),
			fmt.Errorf("upload %s returned no download url", p))
	}

	g.log.WithFields(logrus.Fields{
		"path":    p,
		"updated": sha != "",
		"size":    len(data),
	}).Debug("Uploaded blob to github")

	return out.Content.DownloadURL, nil
}
