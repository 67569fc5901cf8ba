package listingService

import (
	"Replicaide/pkg/response"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetryRetriesTransientFailures(t *testing.T) {
	calls := 0
	res, err := withRetry(context.Background(), fastPolicy(2), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", response.NewUpstreamError("tts", http.StatusServiceUnavailable, errors.New("busy"))
		}
		return "ok", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, 3, calls)
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), fastPolicy(2), func(context.Context) (int, error) {
		calls++
		return 0, response.NewUpstreamError("tts", 0, errors.New("connection reset"))
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrySkipsPermanentFailures(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), fastPolicy(2), func(context.Context) (int, error) {
		calls++
		return 0, response.NewUpstreamError("github", http.StatusForbidden, errors.New("forbidden"))
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryDisabled(t *testing.T) {
	calls := 0
	_, _ = withRetry(context.Background(), fastPolicy(0), func(context.Context) (int, error) {
		calls++
		return 0, response.NewUpstreamError("tts", 500, errors.New("boom"))
	})
	assert.Equal(t, 1, calls)
}

func TestRetryAppliesCallTimeout(t *testing.T) {
	p := RetryPolicy{CallTimeout: 10 * time.Millisecond}
	_, err := withRetry(context.Background(), p, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
