package plantuml

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBackoff(t *testing.T) {
	policy := RetryPolicy{
		BackoffBase: time.Second,
		BackoffMax:  10 * time.Second,
		Jitter:      0, // deterministic for the test
	}

	assert.Equal(t, time.Second, policy.calculateBackoff(0))
	assert.Equal(t, 2*time.Second, policy.calculateBackoff(1))
	assert.Equal(t, 4*time.Second, policy.calculateBackoff(2))
	// Capped at BackoffMax.
	assert.Equal(t, 10*time.Second, policy.calculateBackoff(10))
}

func TestCalculateBackoffJitterBounds(t *testing.T) {
	policy := RetryPolicy{
		BackoffBase: time.Second,
		BackoffMax:  30 * time.Second,
		Jitter:      0.2,
	}

	for i := 0; i < 100; i++ {
		delay := policy.calculateBackoff(1) // nominal 2s
		assert.GreaterOrEqual(t, delay, 1600*time.Millisecond)
		assert.LessOrEqual(t, delay, 2400*time.Millisecond)
	}
}

func TestIsNonRetriable(t *testing.T) {
	policy := DefaultRetryPolicy()

	assert.True(t, policy.isNonRetriable(&StatusError{StatusCode: 400}))
	assert.True(t, policy.isNonRetriable(&StatusError{StatusCode: 404}))
	assert.False(t, policy.isNonRetriable(&StatusError{StatusCode: 500}))
	assert.False(t, policy.isNonRetriable(&StatusError{StatusCode: 503}))
	assert.False(t, policy.isNonRetriable(errors.New("connection refused")))
	assert.False(t, policy.isNonRetriable(nil))
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), RetryPolicy{MaxRetries: 3, BackoffBase: 1}, "test", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), RetryPolicy{MaxRetries: 2, BackoffBase: 1}, "test", func() error {
		attempts++
		return errors.New("persistent failure")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsOnNonRetriable(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), RetryPolicy{MaxRetries: 5, BackoffBase: 1}, "test", func() error {
		attempts++
		return &StatusError{StatusCode: 404}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonRetriable)
	assert.Equal(t, 1, attempts)
}

func TestWithRetrySingleAttemptKeepsErrorShape(t *testing.T) {
	// NoRetry must not wrap the error in ErrMaxRetriesExceeded.
	sentinel := errors.New("boom")
	err := withRetry(context.Background(), NoRetry(), "test", func() error {
		return sentinel
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.False(t, errors.Is(err, ErrMaxRetriesExceeded))
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := withRetry(ctx, RetryPolicy{MaxRetries: 3, BackoffBase: time.Minute}, "test", func() error {
		attempts++
		return errors.New("transient")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
