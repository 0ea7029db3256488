package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fedquery/gateway/types"
)

func testPolicy() *Policy {
	return &Policy{MaxRetries: 3, InitialDelay: 5 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2.0, Jitter: false}
}

func TestBackoffRetryerSucceedsFirstTry(t *testing.T) {
	r := NewBackoffRetryer(testPolicy(), zap.NewNop())
	calls := 0
	err := r.Do(context.Background(), func() error { calls++; return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoffRetryerRetriesRetryableError(t *testing.T) {
	r := NewBackoffRetryer(testPolicy(), zap.NewNop())
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return types.NewError(types.ErrUpstream5xx, "boom")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBackoffRetryerStopsOnNonRetryable(t *testing.T) {
	r := NewBackoffRetryer(testPolicy(), zap.NewNop())
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return types.NewError(types.ErrInvalidInput, "bad query")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-retryable error must not be retried")
}

func TestBackoffRetryerExhaustsRetries(t *testing.T) {
	r := NewBackoffRetryer(testPolicy(), zap.NewNop())
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return types.NewError(types.ErrTransport, "timeout")
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls) // initial + 3 retries
}

func TestBackoffRetryerRespectsContextCancellation(t *testing.T) {
	r := NewBackoffRetryer(&Policy{MaxRetries: 5, InitialDelay: time.Second}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Do(ctx, func() error { return types.NewError(types.ErrTransport, "x") })
	require.Error(t, err)
}

func TestBackoffRetryerExplicitRetryableList(t *testing.T) {
	sentinel := errors.New("sentinel")
	r := NewBackoffRetryer(&Policy{MaxRetries: 2, InitialDelay: 5 * time.Millisecond, RetryableErrors: []error{sentinel}}, zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return errors.New("different error")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
