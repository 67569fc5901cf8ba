package generation

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyCompletion = errors.New("model returned an empty completion")

// CompletionRequest is a single turn chat completion. ImageURL, when set,
// is attached to the user turn.
type CompletionRequest struct {
	System      string
	Prompt      string
	ImageURL    string
	JSON        bool
	Temperature float32
	MaxTokens   int
}

type Generator interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ExtractJSONObject returns the text between the first '{' and the last
// '}' of s, for models that wrap JSON in prose or code fences.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
