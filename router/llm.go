package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fedquery/gateway/llm"
	"github.com/fedquery/gateway/types"
)

const classifierSystemPrompt = `You classify a user's question for a federated search system.
Respond with exactly one JSON object, no prose, no markdown fences, shaped as:
{"intent":"<one of: ticket_lookup, ticket_search, documentation, project_status, team_communication, person_lookup, code_related, general_knowledge, unknown>","entities":["..."],"sources":["<any of: tickets, wiki, chat, code, docs, web>"],"per_source_queries":{"wiki":"..."},"confidence":0.0,"reasoning":"one sentence"}`

type classifierOutput struct {
	Intent           types.Intent            `json:"intent"`
	Entities         []string                `json:"entities"`
	Sources          []types.Source          `json:"sources"`
	PerSourceQueries map[types.Source]string `json:"per_source_queries"`
	Confidence       float64                 `json:"confidence"`
	Reasoning        string                  `json:"reasoning"`
}

// TierB classifies query with a single LLM completion when Tier A's
// deterministic patterns find no match. web, if present in the model's
// source list, is always moved to the end: it is the lowest-precision
// signal and should never crowd out a structured source in the fan-out.
func TierB(ctx context.Context, provider llm.Provider, model, query string) (types.QueryAnalysis, error) {
	req := &llm.ChatRequest{
		Model: model,
		Messages: []types.Message{
			types.NewSystemMessage(classifierSystemPrompt),
			types.NewUserMessage(query),
		},
		MaxTokens:   300,
		Temperature: 0,
	}

	resp, err := provider.Completion(ctx, req)
	if err != nil {
		return types.QueryAnalysis{}, fmt.Errorf("router: tier-b completion: %w", err)
	}

	raw := extractJSONObject(resp.Content)
	if raw == "" {
		return types.QueryAnalysis{}, fmt.Errorf("router: tier-b response contained no JSON object")
	}

	var out classifierOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return types.QueryAnalysis{}, fmt.Errorf("router: tier-b decode: %w", err)
	}

	sources := reorderWebLast(out.Sources)
	if len(sources) == 0 {
		sources = types.DefaultSourcesForIntent(out.Intent)
	}

	return types.QueryAnalysis{
		Intent:             out.Intent,
		Entities:           out.Entities,
		RecommendedSources: sources,
		PerSourceQueries:   out.PerSourceQueries,
		Confidence:         out.Confidence,
		Reasoning:          out.Reasoning,
		Tier:               "llm",
	}, nil
}

// extractJSONObject returns the first balanced {...} substring in s, or
// "" if none is found. Models occasionally wrap JSON in prose or code
// fences despite instructions; this tolerates that without a full parser.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func reorderWebLast(sources []types.Source) []types.Source {
	out := make([]types.Source, 0, len(sources))
	web := false
	for _, s := range sources {
		if !s.Valid() {
			continue
		}
		if s == types.SourceWeb {
			web = true
			continue
		}
		out = append(out, s)
	}
	if web {
		out = append(out, types.SourceWeb)
	}
	return out
}
