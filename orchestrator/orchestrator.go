package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fedquery/gateway/integration"
	"github.com/fedquery/gateway/types"
)

// Config tunes the orchestrator's fan-out.
type Config struct {
	MaxParallel       int
	PerServiceTimeout time.Duration
}

// DefaultConfig matches the specification's defaults.
func DefaultConfig() Config {
	return Config{MaxParallel: 10, PerServiceTimeout: 10 * time.Second}
}

// service bundles one backend's envelope with its static configuration.
type service struct {
	cfg      types.ServiceConfig
	envelope *integration.Envelope
}

// Orchestrator selects services, dispatches in parallel, aggregates and
// ranks. One Orchestrator instance owns every registered Integration
// Envelope for the process's lifetime.
type Orchestrator struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.RWMutex
	services map[types.Source]*service
}

// New builds an Orchestrator with no registered services; call Register
// for each backend before dispatching.
func New(cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 10
	}
	if cfg.PerServiceTimeout <= 0 {
		cfg.PerServiceTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{cfg: cfg, logger: logger, services: make(map[types.Source]*service)}
}

// Register adds or replaces the envelope serving cfg.Source.
func (o *Orchestrator) Register(cfg types.ServiceConfig, envelope *integration.Envelope) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.services[cfg.Source] = &service{cfg: cfg, envelope: envelope}
}

func (o *Orchestrator) configSnapshot() map[types.Source]types.ServiceConfig {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[types.Source]types.ServiceConfig, len(o.services))
	for src, svc := range o.services {
		out[src] = svc.cfg
	}
	return out
}

func (o *Orchestrator) priorities() map[types.Source]int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[types.Source]int, len(o.services))
	for src, svc := range o.services {
		out[src] = svc.cfg.Priority
	}
	return out
}

// Outcome is one dispatched service's settled result.
type Outcome struct {
	Source    types.Source
	Records   []types.Record
	ElapsedMs int64
	Err       error
}

// Result is the aggregate of a full Search call.
type Result struct {
	SourcesResponded []types.Source
	PerServiceTime   map[types.Source]int64
	Results          []types.Record
}

// Search selects services, dispatches them bounded-parallel, and returns
// the ranked, deduplicated aggregate.
func (o *Orchestrator) Search(ctx context.Context, query types.SearchQuery, requested []types.Source) (*Result, error) {
	outcomes := o.dispatch(ctx, query, requested)

	result := &Result{PerServiceTime: make(map[types.Source]int64, len(outcomes))}
	var all []types.Record
	for _, oc := range outcomes {
		result.PerServiceTime[oc.Source] = oc.ElapsedMs
		if oc.Err != nil {
			continue
		}
		result.SourcesResponded = append(result.SourcesResponded, oc.Source)
		all = append(all, oc.Records...)
	}

	result.Results = Rank(query.Query, all, o.priorities())
	return result, nil
}

// dispatch runs the selected services concurrently, bounded at
// cfg.MaxParallel in flight, each under its own per-service timeout. One
// slow or broken service never blocks the others.
func (o *Orchestrator) dispatch(ctx context.Context, query types.SearchQuery, requested []types.Source) []Outcome {
	services := o.configSnapshot()
	sources := SelectSources(query.Query, requested, services)

	outcomes := make([]Outcome, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxParallel)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			outcomes[i] = o.callOne(gctx, src, query)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (o *Orchestrator) callOne(ctx context.Context, src types.Source, query types.SearchQuery) Outcome {
	o.mu.RLock()
	svc, ok := o.services[src]
	o.mu.RUnlock()
	if !ok {
		return Outcome{Source: src, Err: types.NewError(types.ErrInternal, "service not registered").WithSource(src)}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.PerServiceTimeout)
	defer cancel()

	start := time.Now()
	records, err := svc.envelope.Search(callCtx, query)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		o.logger.Warn("service call failed", zap.String("source", string(src)), zap.Error(err))
	}
	return Outcome{Source: src, Records: records, ElapsedMs: elapsed, Err: err}
}
