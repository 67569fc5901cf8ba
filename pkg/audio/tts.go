package audio

import (
	"Replicaide/pkg/response"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	elevenLabsService = "elevenlabs-tts"
	ElevenLabsAPIURL  = "https://api.elevenlabs.io"
	TTSModel          = "eleven_multilingual_v2"
)

var ErrEmptyText = errors.New("text to synthesize is empty")

type SpeechGenerator interface {
	GenerateAudio(ctx context.Context, voiceID string, text string) ([]byte, error)
}

type TTSConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

var DefaultVoiceSettings = VoiceSettings{
	Stability:       0.5,
	SimilarityBoost: 0.8,
	Style:           0.0,
	UseSpeakerBoost: true,
}

type ttsService struct {
	http  *resty.Client
	model string
}

func NewTTSService(cfg TTSConfig) SpeechGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ElevenLabsAPIURL
	}
	if cfg.Model == "" {
		cfg.Model = TTSModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetDebug(false).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("xi-api-key", cfg.APIKey)

	return &ttsService{http: client, model: cfg.Model}
}

func (t *ttsService) GenerateAudio(ctx context.Context, voiceID string, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	res, err := t.http.R().
		SetContext(ctx).
		SetHeader("Accept", "audio/mpeg").
		SetPathParam("voiceID", voiceID).
		SetBody(ttsRequest{
			Text:          text,
			ModelID:       t.model,
			VoiceSettings: DefaultVoiceSettings,
		}).
		Post("/v1/text-to-speech/{voiceID}")
	if err != nil {
		return nil, response.NewUpstreamError(elevenLabsService, 0, err)
	}
	if res.IsError() {
		return nil, response.NewUpstreamError(elevenLabsService, res.StatusCode(),
			errors.New("ElevenLabs API error: "+res.Status()))
	}

	body := res.Body()
	if len(body) == 0 {
		return nil, response.NewUpstreamError(elevenLabsService, res.StatusCode(),
			errors.New("ElevenLabs returned empty audio"))
	}

	return body, nil
}
