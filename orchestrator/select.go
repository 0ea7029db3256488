// Package orchestrator implements source selection, bounded parallel
// dispatch to Integration Envelopes, result aggregation and ranking,
// and streaming aggregation over SSE — the pipeline stage between the
// Query Router and the RAG Assembler.
package orchestrator

import (
	"sort"
	"strings"

	"github.com/fedquery/gateway/types"
)

// SelectSources implements the orchestrator's deterministic source
// selection:
//  1. An explicit requested list is filtered to configured+enabled
//     services and returned in input order.
//  2. Otherwise, lowercase the query and keep every enabled service
//     whose configured keyword list contains a substring match, sorted
//     by ascending priority.
//  3. If nothing matched, fall back to the top 5 enabled services by
//     priority.
func SelectSources(query string, requested []types.Source, services map[types.Source]types.ServiceConfig) []types.Source {
	if len(requested) > 0 {
		out := make([]types.Source, 0, len(requested))
		for _, s := range requested {
			if cfg, ok := services[s]; ok && cfg.Enabled {
				out = append(out, s)
			}
		}
		return out
	}

	lower := strings.ToLower(query)
	var matched []types.ServiceConfig
	for _, cfg := range services {
		if !cfg.Enabled {
			continue
		}
		for _, kw := range cfg.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				matched = append(matched, cfg)
				break
			}
		}
	}
	if len(matched) > 0 {
		sort.Slice(matched, func(i, j int) bool { return matched[i].Priority < matched[j].Priority })
		out := make([]types.Source, len(matched))
		for i, cfg := range matched {
			out[i] = cfg.Source
		}
		return out
	}

	var enabled []types.ServiceConfig
	for _, cfg := range services {
		if cfg.Enabled {
			enabled = append(enabled, cfg)
		}
	}
	sort.Slice(enabled, func(i, j int) bool { return enabled[i].Priority < enabled[j].Priority })
	if len(enabled) > 5 {
		enabled = enabled[:5]
	}
	out := make([]types.Source, len(enabled))
	for i, cfg := range enabled {
		out[i] = cfg.Source
	}
	return out
}
