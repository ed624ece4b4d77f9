package http

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryConfig holds configuration for retry logic.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	// RateLimitWait is the wait applied to a rate-limit error when the
	// server did not supply a Retry-After duration.
	RateLimitWait time.Duration
}

// DefaultRetryConfig returns sensible default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     32 * time.Second,
		Multiplier:     2.0,
		RateLimitWait:  5 * time.Second,
	}
}

// ExponentialBackoff calculates wait time with jitter.
// Formula: min(initial * multiplier^attempt, maxBackoff) ± 25% jitter
func ExponentialBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(config.Multiplier, float64(attempt))

	if backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}

	jitterRange := 0.25 * backoff
	jitter := (rand.Float64() * 2 * jitterRange) - jitterRange
	result := backoff + jitter

	if result > float64(config.MaxBackoff) {
		result = float64(config.MaxBackoff)
	}
	if result < 0 {
		result = 0
	}

	return time.Duration(result)
}

// ShouldRetry determines if an error is retryable.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *Error
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}

	// Generic errors are not retryable.
	return false
}

// backoffFor picks the wait before the next attempt. Rate-limit errors
// honor the server-supplied Retry-After, falling back to the configured
// default; everything else backs off exponentially.
func backoffFor(err error, attempt int, config RetryConfig) time.Duration {
	var httpErr *Error
	if errors.As(err, &httpErr) && httpErr.Type == ErrTypeRateLimit {
		if httpErr.RetryAfter > 0 {
			return httpErr.RetryAfter
		}
		if config.RateLimitWait > 0 {
			return config.RateLimitWait
		}
	}
	return ExponentialBackoff(attempt, config)
}

// Operation is a function that can be retried.
type Operation func(ctx context.Context) error

// RetryWithBackoff executes an operation with exponential backoff retry
// logic. Rate-limit errors wait for the server-supplied duration instead
// of the exponential schedule.
func RetryWithBackoff(ctx context.Context, operation Operation, config RetryConfig) error {
	return retryWithSleep(ctx, operation, config, sleepCtx)
}

// retryWithSleep is the testable core of RetryWithBackoff.
func retryWithSleep(ctx context.Context, operation Operation, config RetryConfig, sleep func(context.Context, time.Duration) error) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if !ShouldRetry(err) {
			return err
		}
		if attempt >= config.MaxRetries {
			return err
		}

		if err := sleep(ctx, backoffFor(err, attempt, config)); err != nil {
			return err
		}
	}

	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
