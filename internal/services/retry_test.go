package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	t.Parallel()

	errFlaky := errors.New("flaky")
	policy := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond}

	t.Run("succeeds after failures", func(t *testing.T) {
		t.Parallel()
		calls := 0
		got, err := retry(context.Background(), policy, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errFlaky
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		t.Parallel()
		calls := 0
		_, err := retry(context.Background(), policy, func() (string, error) {
			calls++
			return "", errFlaky
		})
		require.ErrorIs(t, err, errFlaky)
		assert.Equal(t, 3, calls)
	})

	t.Run("zero attempts still runs once", func(t *testing.T) {
		t.Parallel()
		calls := 0
		_, _ = retry(context.Background(), RetryPolicy{}, func() (bool, error) {
			calls++
			return false, errFlaky
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		_, err := retry(ctx, RetryPolicy{MaxAttempts: 5, InitialDelay: time.Hour}, func() (int, error) {
			calls++
			return 0, errFlaky
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
