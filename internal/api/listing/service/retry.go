package listingService

import (
	"Replicaide/pkg/response"
	"context"
	"time"
)

// RetryPolicy bounds every external call of a pipeline run. Only errors
// that report themselves retryable are attempted again.
type RetryPolicy struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	CallTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  2,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    4 * time.Second,
		CallTimeout: 60 * time.Second,
	}
}

func withRetry[T any](ctx context.Context, p RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	delay := p.BaseDelay

	for attempt := 0; ; attempt++ {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if p.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.CallTimeout)
		}

		res, err := op(callCtx)
		cancel()
		if err == nil {
			return res, nil
		}

		if attempt >= p.MaxRetries || !response.IsRetryable(err) || ctx.Err() != nil {
			return zero, err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}
