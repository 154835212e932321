package services

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy controls retries of transient failures such as network calls.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// retry runs fn up to MaxAttempts times, waiting InitialDelay*attempt between tries.
func retry[T any](ctx context.Context, policy RetryPolicy, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}

		wait := policy.InitialDelay * time.Duration(i+1)
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(wait):
		}
	}

	return zero, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
