package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast() []Option {
	return []Option{WithInitialDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond)}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	attempts := 0
	var hooks []int
	opts := append(fast(), WithOnRetry(func(attempt int, _ error, _ time.Duration) {
		hooks = append(hooks, attempt)
	}))

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, opts...)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, hooks)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	cause := errors.New("connection refused")
	attempts := 0

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return cause
	}, append(fast(), WithMaxAttempts(3))...)

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
}

func TestDo_RetryIfStopsImmediately(t *testing.T) {
	rejected := errors.New("rejected")
	attempts := 0

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return rejected
	}, append(fast(), WithRetryIf(func(err error) bool { return !errors.Is(err, rejected) }))...)

	assert.Same(t, rejected, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_Permanent(t *testing.T) {
	cause := errors.New("bad credentials")
	attempts := 0

	err := Do(context.Background(), func(context.Context) error {
		attempts++
		return Permanent(cause)
	}, fast()...)

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, attempts)
	assert.Nil(t, Permanent(nil))
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, func(context.Context) error {
		attempts++
		cancel()
		return errors.New("timeout")
	}, WithInitialDelay(time.Minute))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestDo_BackoffIsCapped(t *testing.T) {
	var delays []time.Duration
	_ = Do(context.Background(), func(context.Context) error {
		return errors.New("x")
	},
		WithMaxAttempts(5),
		WithInitialDelay(time.Millisecond),
		WithMultiplier(3),
		WithMaxDelay(5*time.Millisecond),
		WithOnRetry(func(_ int, _ error, d time.Duration) { delays = append(delays, d) }),
	)

	assert.Equal(t, []time.Duration{time.Millisecond, 3 * time.Millisecond, 5 * time.Millisecond, 5 * time.Millisecond}, delays)
}
