package http

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(recorded *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*recorded = append(*recorded, d)
		return nil
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) error {
		calls++
		return nil
	}

	var sleeps []time.Duration
	err := retryWithSleep(context.Background(), op, DefaultRetryConfig(), noSleep(&sleeps))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeps)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) error {
		calls++
		return NewAuthenticationError("blackbox", "bad key")
	}

	var sleeps []time.Duration
	err := retryWithSleep(context.Background(), op, DefaultRetryConfig(), noSleep(&sleeps))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) error {
		calls++
		return NewTimeoutError("blackbox", "deadline")
	}

	cfg := DefaultRetryConfig()
	cfg.MaxRetries = 3

	var sleeps []time.Duration
	err := retryWithSleep(context.Background(), op, cfg, noSleep(&sleeps))

	require.Error(t, err)
	// Initial attempt plus MaxRetries retries.
	assert.Equal(t, 4, calls)
	assert.Len(t, sleeps, 3)
}

func TestRetryHonorsServerRetryAfter(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return NewRateLimitError("blackbox", "slow down", 7*time.Second)
		}
		return nil
	}

	var sleeps []time.Duration
	err := retryWithSleep(context.Background(), op, DefaultRetryConfig(), noSleep(&sleeps))

	require.NoError(t, err)
	require.Len(t, sleeps, 1)
	assert.Equal(t, 7*time.Second, sleeps[0])
}

func TestRetryRateLimitFallsBackToDefaultWait(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return NewRateLimitError("blackbox", "slow down", 0)
		}
		return nil
	}

	cfg := DefaultRetryConfig()
	cfg.RateLimitWait = 5 * time.Second

	var sleeps []time.Duration
	err := retryWithSleep(context.Background(), op, cfg, noSleep(&sleeps))

	require.NoError(t, err)
	require.Len(t, sleeps, 1)
	assert.Equal(t, 5*time.Second, sleeps[0])
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := func(ctx context.Context) error { return NewTimeoutError("blackbox", "x") }

	err := retryWithSleep(ctx, op, DefaultRetryConfig(), func(context.Context, time.Duration) error { return nil })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExponentialBackoffGrowsAndCaps(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: time.Second,
		MaxBackoff:     8 * time.Second,
		Multiplier:     2.0,
	}

	for attempt := 0; attempt < 10; attempt++ {
		d := ExponentialBackoff(attempt, cfg)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, cfg.MaxBackoff)
	}
}

func TestShouldRetry(t *testing.T) {
	assert.False(t, ShouldRetry(nil))
	assert.False(t, ShouldRetry(errors.New("plain")))
	assert.True(t, ShouldRetry(NewServiceUnavailableError("blackbox", "503")))
	assert.True(t, ShouldRetry(NewInvalidResponseError("blackbox", "login page")))
	assert.False(t, ShouldRetry(NewInvalidRequestError("blackbox", "400")))
}

func TestErrorIsMatchesByType(t *testing.T) {
	err := NewRateLimitError("blackbox", "a", 0)
	target := NewRateLimitError("other", "b", time.Minute)

	assert.ErrorIs(t, err, target)
	assert.NotErrorIs(t, err, NewTimeoutError("blackbox", "c"))
}
