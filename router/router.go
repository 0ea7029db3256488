package router

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	internalcache "github.com/fedquery/gateway/internal/cache"
	"github.com/fedquery/gateway/llm"
	"github.com/fedquery/gateway/types"
)

// minTierAConfidence is the floor a Tier A rule must clear before its
// result is trusted outright; every rule in patterns.go is defined above
// this floor, so in practice a Tier A match always wins when one fires.
const minTierAConfidence = 0.70

// fallbackAnalysis is returned when both classification tiers fail.
func fallbackAnalysis() types.QueryAnalysis {
	return types.QueryAnalysis{
		Intent:             types.IntentGeneralKnowledge,
		RecommendedSources: []types.Source{types.SourceTickets, types.SourceWiki, types.SourceChat},
		Confidence:         0.5,
		Reasoning:          "tier-a and tier-b classification both unavailable",
		Tier:               "fallback",
	}
}

// requiredSource names the source an intent cannot be answered without.
// Absent from the map, an intent has no hard source requirement.
var requiredSource = map[types.Intent]types.Source{
	types.IntentTicketLookup:      types.SourceTickets,
	types.IntentTeamCommunication: types.SourceChat,
}

// AvailabilityChecker reports whether a source's backend client is
// configured and usable, so the router can apply the source-required
// policy before dispatching to the orchestrator.
type AvailabilityChecker func(types.Source) bool

// defaultClassifyCacheTTL bounds how long a Tier B classification is
// reused for an identical question before the LLM is asked again.
const defaultClassifyCacheTTL = 10 * time.Minute

// Router classifies incoming questions and decides whether the question
// can proceed or must be short-circuited with a requires-setup response.
type Router struct {
	provider  llm.Provider
	model     string
	available AvailabilityChecker
	logger    *zap.Logger

	classifyCache    *internalcache.Manager
	classifyCacheTTL time.Duration
}

// New builds a Router. provider/model may be left zero-valued, in which
// case Tier B is skipped and an unmatched query always falls back.
func New(provider llm.Provider, model string, available AvailabilityChecker, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if available == nil {
		available = func(types.Source) bool { return true }
	}
	return &Router{provider: provider, model: model, available: available, logger: logger}
}

// WithClassifyCache attaches a Redis-backed cache for Tier B
// classification results, keyed by normalized question text, so a
// repeated question skips the LLM call entirely. Passing a nil manager
// disables caching (the default).
func (r *Router) WithClassifyCache(m *internalcache.Manager, ttl time.Duration) *Router {
	r.classifyCache = m
	if ttl <= 0 {
		ttl = defaultClassifyCacheTTL
	}
	r.classifyCacheTTL = ttl
	return r
}

func classifyCacheKey(query string) string {
	return "router:classify:" + strings.ToLower(strings.TrimSpace(query))
}

// Decision is the outcome of routing one query.
type Decision struct {
	Analysis      types.QueryAnalysis
	RequiresSetup bool
	MissingSource types.Source
}

// Route classifies query and applies the source-required policy.
func (r *Router) Route(ctx context.Context, query string) Decision {
	analysis := r.classify(ctx, query)

	if need, ok := requiredSource[analysis.Intent]; ok && !r.available(need) {
		r.logger.Info("router: required source unavailable",
			zap.String("intent", analysis.Intent.String()), zap.String("source", need.String()))
		return Decision{Analysis: analysis, RequiresSetup: true, MissingSource: need}
	}

	return Decision{Analysis: analysis}
}

func (r *Router) classify(ctx context.Context, query string) types.QueryAnalysis {
	if analysis, ok := TierA(query); ok && analysis.Confidence >= minTierAConfidence {
		return analysis
	}

	if r.classifyCache != nil {
		var cached types.QueryAnalysis
		if err := r.classifyCache.GetJSON(ctx, classifyCacheKey(query), &cached); err == nil {
			return cached
		}
	}

	if r.provider != nil {
		analysis, err := TierB(ctx, r.provider, r.model, query)
		if err == nil && analysis.Intent.Valid() && len(analysis.RecommendedSources) > 0 {
			if r.classifyCache != nil {
				if data, marshalErr := json.Marshal(analysis); marshalErr == nil {
					if setErr := r.classifyCache.Set(ctx, classifyCacheKey(query), string(data), r.classifyCacheTTL); setErr != nil {
						r.logger.Warn("router: failed to cache classification", zap.Error(setErr))
					}
				}
			}
			return analysis
		}
		r.logger.Warn("router: tier-b classification failed, using fallback", zap.Error(err))
	}

	return fallbackAnalysis()
}

// ClassifyCacheStats reports the Tier B classification cache's Redis
// stats, or nil if no cache is attached.
func (r *Router) ClassifyCacheStats(ctx context.Context) (*internalcache.Stats, error) {
	if r.classifyCache == nil {
		return nil, nil
	}
	return r.classifyCache.GetStats(ctx)
}
