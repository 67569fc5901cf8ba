package openai

import (
	"Replicaide/pkg/generation"
	"Replicaide/pkg/response"
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	openAIService = "openai-chat"
	DefaultModel  = openai.GPT4o
)

type Config struct {
	APIKey string
	// BaseURL overrides the API root, e.g. for a proxy. It must include
	// the /v1 suffix.
	BaseURL string
	Model   string
}

type chatGPTService struct {
	client *openai.Client
	model  string
}

func NewChatGPT(cfg Config) generation.Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &chatGPTService{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (c *chatGPTService) Complete(ctx context.Context, req generation.CompletionRequest) (string, error) {
	var messages []openai.ChatCompletionMessage

	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.ImageURL != "" {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    req.ImageURL,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		}
	} else {
		user.Content = req.Prompt
	}
	messages = append(messages, user)

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", generation.ErrEmptyCompletion
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", generation.ErrEmptyCompletion
	}

	return content, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return response.NewUpstreamError(openAIService, apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return response.NewUpstreamError(openAIService, reqErr.HTTPStatusCode, err)
	}

	return response.NewUpstreamError(openAIService, 0, err)
}
