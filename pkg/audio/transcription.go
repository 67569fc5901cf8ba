package audio

import (
	"Replicaide/pkg/response"
	"Replicaide/pkg/utils"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	openAIService      = "openai-transcription"
	OpenAIAPIURL       = "https://api.openai.com"
	TranscriptionModel = "whisper-1"
)

var ErrEmptyAudio = errors.New("audio payload is empty")

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

type TranscriptionConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type transcriptionService struct {
	http  *resty.Client
	model string
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewTranscriptionService(cfg TranscriptionConfig) Transcriber {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenAIAPIURL
	}
	if cfg.Model == "" {
		cfg.Model = TranscriptionModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	client := resty.New().
		SetDebug(false).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey)

	return &transcriptionService{http: client, model: cfg.Model}
}

// Transcribe sends the recording as a multipart upload. The part carries
// mimeType and a filename with the matching extension so the API can
// detect the container.
func (t *transcriptionService) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	var (
		out    transcriptionResponse
		apiErr openAIErrorResponse
	)

	res, err := t.http.R().
		SetContext(ctx).
		SetMultipartField("file", "recording"+utils.AudioExtension(mimeType), mimeType, bytes.NewReader(audio)).
		SetMultipartFormData(map[string]string{
			"model":           t.model,
			"response_format": "json",
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/audio/transcriptions")
	if err != nil {
		return "", response.NewUpstreamError(openAIService, 0, err)
	}
	if res.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = res.Status()
		}
		return "", response.NewUpstreamError(openAIService, res.StatusCode(), errors.New(msg))
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", fmt.Errorf("transcription returned no text")
	}

	return text, nil
}
