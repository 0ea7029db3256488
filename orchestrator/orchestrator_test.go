package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	gwcache "github.com/fedquery/gateway/cache"
	"github.com/fedquery/gateway/circuitbreaker"
	"github.com/fedquery/gateway/integration"
	"github.com/fedquery/gateway/ratelimit"
	"github.com/fedquery/gateway/types"
)

type stubAdapter struct {
	source  types.Source
	results []types.Record
	err     error
	delay   time.Duration
}

func (s *stubAdapter) Source() types.Source { return s.source }

func (s *stubAdapter) SearchImpl(ctx context.Context, query types.SearchQuery) ([]types.Record, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, types.NewError(types.ErrTransport, "deadline exceeded").WithCause(ctx.Err())
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *stubAdapter) Initialize(ctx context.Context) error { return nil }
func (s *stubAdapter) Close() error                         { return nil }

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := gwcache.New(rdb, gwcache.DefaultConfig(), zap.NewNop())

	o := New(Config{MaxParallel: 5, PerServiceTimeout: time.Second}, zap.NewNop())

	register := func(src types.Source, priority int, keywords []string, results []types.Record, err error) {
		cfg := types.ServiceConfig{Source: src, Enabled: true, Priority: priority, Keywords: keywords}
		envCfg := integration.DefaultConfig()
		envCfg.RateLimit = ratelimit.Config{RequestsPerSecond: 1000, Burst: 1000, WindowSize: time.Second, WindowMax: 1000}
		envCfg.Breaker = &circuitbreaker.Config{Threshold: 5, Timeout: time.Second, ResetTimeout: time.Minute, HalfOpenMaxCalls: 1, SuccessThreshold: 1}
		envCfg.MaxRetries = 0
		env := integration.New(&stubAdapter{source: src, results: results, err: err}, envCfg, c, zap.NewNop())
		o.Register(cfg, env)
	}

	register(types.SourceWiki, 1, []string{"guide"}, []types.Record{{Source: types.SourceWiki, ID: "w1", Title: "login guide"}}, nil)
	register(types.SourceTickets, 2, []string{"bug"}, []types.Record{{Source: types.SourceTickets, ID: "t1", Title: "login bug"}}, nil)
	register(types.SourceChat, 3, nil, nil, types.NewError(types.ErrUpstream5xx, "down"))

	return o
}

func TestOrchestratorSearchAggregatesAndRanks(t *testing.T) {
	o := newTestOrchestrator(t)
	all := []types.Source{types.SourceWiki, types.SourceTickets, types.SourceChat}
	result, err := o.Search(context.Background(), types.SearchQuery{Query: "login guide", Limit: 10}, all)
	require.NoError(t, err)

	assert.Contains(t, result.SourcesResponded, types.SourceWiki)
	assert.Contains(t, result.SourcesResponded, types.SourceTickets)
	assert.NotContains(t, result.SourcesResponded, types.SourceChat, "failed service must be excluded from sources_responded")
	require.NotEmpty(t, result.Results)
	assert.Equal(t, "w1", result.Results[0].ID, "title match on both terms should outrank a single-term match")
}

func TestOrchestratorSearchRecordsPerServiceTimeForFailures(t *testing.T) {
	o := newTestOrchestrator(t)
	all := []types.Source{types.SourceWiki, types.SourceTickets, types.SourceChat}
	result, err := o.Search(context.Background(), types.SearchQuery{Query: "login guide", Limit: 10}, all)
	require.NoError(t, err)
	_, ok := result.PerServiceTime[types.SourceChat]
	assert.True(t, ok, "a failed service must still be timed even though it's omitted from sources_responded")
}

func TestOrchestratorStreamSearchEmitsStartResultsAndDone(t *testing.T) {
	o := newTestOrchestrator(t)
	events := o.StreamSearch(context.Background(), types.SearchQuery{Query: "login", Limit: 10}, nil, 10)

	var eventTypes []EventType
	for ev := range events {
		eventTypes = append(eventTypes, ev.Type)
	}

	require.NotEmpty(t, eventTypes)
	assert.Equal(t, EventStart, eventTypes[0])
	assert.Equal(t, EventDone, eventTypes[len(eventTypes)-1])

	var sawResults, sawError bool
	for _, ty := range eventTypes {
		if ty == EventResults {
			sawResults = true
		}
		if ty == EventError {
			sawError = true
		}
	}
	assert.True(t, sawResults)
	assert.True(t, sawError)
}

func TestOrchestratorAdminEnableDisable(t *testing.T) {
	o := newTestOrchestrator(t)
	require.NoError(t, o.SetEnabled(types.SourceWiki, false))

	statuses := o.ListServices()
	var found bool
	for _, s := range statuses {
		if s.Config.Source == types.SourceWiki {
			found = true
			assert.False(t, s.Config.Enabled)
		}
	}
	assert.True(t, found)
}

func TestOrchestratorAdminSetEnabledUnknownService(t *testing.T) {
	o := newTestOrchestrator(t)
	err := o.SetEnabled(types.SourceWeb, true)
	assert.Error(t, err)
}

func TestOrchestratorRefreshHealth(t *testing.T) {
	o := newTestOrchestrator(t)
	statuses := o.RefreshHealth(context.Background())
	assert.Len(t, statuses, 3)
}
