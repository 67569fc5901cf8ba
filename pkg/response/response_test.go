package response

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	ErrNotFound := NewError(404, "not found")

	wrapped := fmt.Errorf("lookup: %w", NewError(404, "not found"))
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, NewError(500, "not found"))
}

func TestUpstreamErrorRetryable(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{0, true},
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{401, false},
		{404, false},
	}

	for _, tc := range cases {
		err := fmt.Errorf("call: %w", NewUpstreamError("openai", tc.status, errors.New("x")))
		assert.Equal(t, tc.want, IsRetryable(err), "status %d", tc.status)
	}

	assert.False(t, IsRetryable(errors.New("plain")))
}
