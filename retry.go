package plantuml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"plantuml-go/internal/logging"
)

// Sentinel errors for renderer fetch retries.
var (
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
	ErrNonRetriable       = errors.New("non-retriable error")
)

// RetryPolicy configures retry behavior for renderer fetches with
// exponential backoff. The codec itself never retries; only the HTTP fetch
// of a rendered image is subject to a policy.
type RetryPolicy struct {
	MaxRetries  int           // Maximum number of retry attempts (default: 2)
	BackoffBase time.Duration // Base delay for exponential backoff (default: 500ms)
	BackoffMax  time.Duration // Maximum delay cap (default: 10s)
	Jitter      float64       // Jitter factor 0-1 for randomization (default: 0.2)
}

// DefaultRetryPolicy returns sensible defaults for renderer fetch retries.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  2,
		BackoffBase: 500 * time.Millisecond,
		BackoffMax:  10 * time.Second,
		Jitter:      0.2,
	}
}

// NoRetry returns a policy that performs a single attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxRetries: 0}
}

// isNonRetriable reports whether err cannot be fixed by retrying. Renderer
// 4xx statuses are deterministic: the same token yields the same answer.
func (p RetryPolicy) isNonRetriable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
	}
	return false
}

// calculateBackoff returns the delay for a given attempt with jitter.
func (p RetryPolicy) calculateBackoff(attempt int) time.Duration {
	delay := float64(p.BackoffBase) * math.Pow(2, float64(attempt))
	if delay > float64(p.BackoffMax) {
		delay = float64(p.BackoffMax)
	}
	jitterRange := delay * p.Jitter
	delay += (rand.Float64()*2 - 1) * jitterRange // -jitter to +jitter
	return time.Duration(delay)
}

// withRetry runs fn under the policy, backing off between attempts.
func withRetry(ctx context.Context, policy RetryPolicy, op string, fn func() error) error {
	logger := logging.FromContext(ctx).With("component", "retry", "op", op)

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := policy.calculateBackoff(attempt - 1)
			logger.Info("backing off before retry", "attempt", attempt+1, "delay", backoff)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if policy.isNonRetriable(err) {
			return fmt.Errorf("%w: %w", ErrNonRetriable, err)
		}
		logger.Warn("attempt failed", "attempt", attempt+1, "err", err)
	}

	if policy.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, policy.MaxRetries+1, lastErr)
}
