package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyAttempts(t *testing.T) {
	assert.Equal(t, 6, DefaultRetryPolicy().Attempts())
	assert.Equal(t, 1, RetryPolicy{}.Attempts())
	assert.Equal(t, 1, RetryPolicy{MaxRetries: -3}.Attempts())
}

func TestRetry(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, Delay: time.Millisecond}
	failure := errors.New("boom")

	t.Run("succeeds first time", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), policy, func(attempt int) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("succeeds on kth attempt", func(t *testing.T) {
		for k := 1; k <= 6; k++ {
			calls := 0
			err := Retry(context.Background(), policy, func(attempt int) error {
				calls++
				assert.Equal(t, calls, attempt)
				if attempt < k {
					return failure
				}
				return nil
			})
			require.NoError(t, err, "k=%d", k)
			assert.Equal(t, k, calls, "k=%d", k)
		}
	})

	t.Run("exhausts after six attempts", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), policy, func(attempt int) error {
			calls++
			return failure
		})
		require.Error(t, err)
		assert.Equal(t, 6, calls)
		assert.ErrorIs(t, err, ErrRetriesExhausted)
		assert.ErrorIs(t, err, failure)
	})

	t.Run("waits between attempts", func(t *testing.T) {
		start := time.Now()
		_ = Retry(context.Background(), RetryPolicy{MaxRetries: 2, Delay: 20 * time.Millisecond}, func(int) error {
			return failure
		})
		assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	})

	t.Run("cancellation interrupts delay", func(t *testing.T) {
		cause := errors.New("sibling failed")
		ctx, cancel := context.WithCancelCause(context.Background())
		calls := 0
		err := Retry(ctx, RetryPolicy{MaxRetries: 5, Delay: time.Hour}, func(int) error {
			calls++
			cancel(cause)
			return failure
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrRetriesExhausted)
	})

	t.Run("cancelled context makes no attempt", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		err := Retry(ctx, policy, func(int) error {
			calls++
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, calls)
	})
}
