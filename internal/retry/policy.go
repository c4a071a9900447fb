package retry

import (
	"context"
	"errors"
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

// sleepFunc is the sleep function used between attempts (injectable for tests)
var sleepFunc = sleep

// Policy is a reusable retry policy: bounded attempts, exponential backoff,
// and a predicate deciding which errors are transient. Applied uniformly to
// every external-call site.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   func(error) bool
}

// NewPolicy creates a policy with the given attempt budget. Attempts below 1
// are clamped to 1 (a single try, no retries).
func NewPolicy(maxAttempts int, baseDelay time.Duration) Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Retryable:   DefaultRetryable,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempt
// budget runs out, or the context is cancelled. The last error is returned.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt < p.MaxAttempts-1 {
			backoff := p.BaseDelay * time.Duration(1<<uint(attempt))
			if err := sleepFunc(ctx, backoff); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// DefaultRetryable treats timeouts and anything not in the non-transient
// taxonomy as transient. UnsupportedFormat and Configuration errors fail
// immediately.
func DefaultRetryable(err error) bool {
	if errors.Is(err, model.ErrUnsupportedFormat) || errors.Is(err, model.ErrConfiguration) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
