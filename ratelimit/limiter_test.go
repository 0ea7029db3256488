package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedquery/gateway/types"
)

func TestLimiterAllowsWithinBurst(t *testing.T) {
	l := New(Config{RequestsPerSecond: 100, Burst: 5, WindowSize: time.Second, WindowMax: 5})
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Allow())
	}
}

func TestLimiterRejectsOverBucketBurst(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1, Burst: 2, WindowSize: time.Minute, WindowMax: 100})
	require.NoError(t, l.Allow())
	require.NoError(t, l.Allow())
	err := l.Allow()
	require.Error(t, err)
	assert.Equal(t, types.ErrRateLimited, types.GetErrorCode(err))
}

func TestLimiterRejectsOverWindowMax(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1000, Burst: 1000, WindowSize: time.Minute, WindowMax: 3})
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow())
	}
	err := l.Allow()
	require.Error(t, err)
	assert.Equal(t, types.ErrRateLimited, types.GetErrorCode(err))
}

func TestLimiterPenaltyEscalatesOnRepeatedRateLimitOutcome(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1000, Burst: 1000, WindowSize: time.Minute, WindowMax: 1000})

	l.RecordOutcome(OutcomeRateLimited, 0)
	err1 := l.Allow()
	require.Error(t, err1)
	first := RetryAfter(err1)

	l.RecordOutcome(OutcomeRateLimited, 0)
	err2 := l.Allow()
	require.Error(t, err2)
	second := RetryAfter(err2)

	assert.Greater(t, second, first, "backoff must escalate on repeated rate-limited outcomes")
}

func TestLimiterHonorsExplicitRetryAfterHint(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1000, Burst: 1000, WindowSize: time.Minute, WindowMax: 1000})

	l.RecordOutcome(OutcomeRateLimited, 5*time.Second)
	err := l.Allow()
	require.Error(t, err)
	assert.InDelta(t, 5*time.Second, RetryAfter(err), float64(200*time.Millisecond))
}

func TestLimiterAdaptiveExtensionNarrowsWindowOnHighErrorRate(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1000, Burst: 1000, WindowSize: time.Minute, WindowMax: 10})

	// 1 rate-limited outcome in 9 total exceeds the 10% error-rate bar.
	for i := 0; i < 8; i++ {
		l.RecordOutcome(OutcomeSuccess, 0)
	}
	l.RecordOutcome(OutcomeRateLimited, time.Millisecond)

	// Force the 60s adjustment interval to have elapsed so the next
	// outcome closes it out and re-evaluates the window cap.
	l.mu.Lock()
	l.adjustStart = time.Now().Add(-adjustmentInterval - time.Second)
	l.mu.Unlock()
	l.RecordOutcome(OutcomeSuccess, 0)

	l.mu.Lock()
	effective := l.effectiveWindowMax
	l.mu.Unlock()
	assert.Equal(t, 8, effective, "window cap must drop to 80% of configured after a high error rate interval")
}

func TestLimiterWaitRespectsContextCancellation(t *testing.T) {
	l := New(Config{RequestsPerSecond: 0.1, Burst: 1})
	require.NoError(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	require.Error(t, err)
}

func TestManagerPerSourceIsolation(t *testing.T) {
	m := NewManager(map[types.Source]Config{
		types.SourceWiki: {RequestsPerSecond: 1, Burst: 1, WindowSize: time.Minute, WindowMax: 1},
	}, DefaultConfig())

	require.NoError(t, m.Allow(types.SourceWiki))
	require.Error(t, m.Allow(types.SourceWiki))

	// A different source has its own independent limiter.
	require.NoError(t, m.Allow(types.SourceCode))
}
