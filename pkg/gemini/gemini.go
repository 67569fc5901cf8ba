package gemini

import (
	"Replicaide/pkg/generation"
	"Replicaide/pkg/response"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	geminiService = "gemini"
	DefaultModel  = "gemini-1.5-flash"
)

type Config struct {
	APIKey string
	Model  string
}

type geminiClient struct {
	modelName string
	client    *genai.Client
	fetcher   *ImageFetcher
}

func NewGeminiClient(ctx context.Context, cfg Config) (generation.Generator, func() error, error) {
	if cfg.APIKey == "" {
		return nil, nil, errors.New("gemini API key is required")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, nil, err
	}

	g := &geminiClient{
		modelName: modelName,
		client:    client,
		fetcher:   NewImageFetcher(30 * time.Second),
	}

	return g, client.Close, nil
}

func (g *geminiClient) Complete(ctx context.Context, req generation.CompletionRequest) (string, error) {
	model := g.client.GenerativeModel(g.modelName)

	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if req.Temperature > 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	if req.ImageURL != "" {
		format, data, err := g.fetcher.Fetch(ctx, req.ImageURL)
		if err != nil {
			return "", err
		}
		parts = append(parts, genai.ImageData(format, data))
	}

	res, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", classify(err)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", generation.ErrEmptyCompletion
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", generation.ErrEmptyCompletion
	}

	return out, nil
}

func classify(err error) error {
	var coded interface{ HTTPCode() int }
	if errors.As(err, &coded) && coded.HTTPCode() > 0 {
		return response.NewUpstreamError(geminiService, coded.HTTPCode(), err)
	}
	return response.NewUpstreamError(geminiService, 0, err)
}

// ImageFetcher downloads an image so it can be sent inline to models that do
// not accept remote URLs.
type ImageFetcher struct {
	http *resty.Client
}

func NewImageFetcher(timeout time.Duration) *ImageFetcher {
	return &ImageFetcher{
		http: resty.New().SetDebug(false).SetTimeout(timeout),
	}
}

// Fetch returns the image subtype ("jpeg", "png", ...) and its bytes.
func (f *ImageFetcher) Fetch(ctx context.Context, url string) (string, []byte, error) {
	res, err := f.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", nil, response.NewUpstreamError("image-fetch", 0, err)
	}
	if res.IsError() {
		return "", nil, response.NewUpstreamError("image-fetch", res.StatusCode(),
			fmt.Errorf("fetch %s: %s", url, res.Status()))
	}

	data := res.Body()
	mediaType, _, err := mime.ParseMediaType(res.Header().Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		mediaType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", nil, fmt.Errorf("fetch %s: not an image (%s)", url, mediaType)
	}

	return strings.TrimPrefix(mediaType, "image/"), data, nil
}
