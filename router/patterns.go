// Package router classifies an incoming question's intent and selects
// which backend services it should be routed to: fast deterministic
// patterns first (Tier A), falling back to one LLM classification call
// (Tier B) when no pattern clears the confidence bar.
package router

import (
	"regexp"
	"strings"

	"github.com/fedquery/gateway/types"
)

// rule is one Tier A pattern: if match reports true against the
// lowercased query, the router assigns intent/sources at confidence.
type rule struct {
	name       string
	match      func(query, lower string) bool
	intent     types.Intent
	sources    []types.Source
	confidence float64
}

var ticketKeyPattern = regexp.MustCompile(`[A-Z]{2,10}-\d+`)

var phraseFamilies = map[types.Intent][]string{
	types.IntentDocumentation:     {"how to", "guide", "documentation", "tutorial", "walkthrough"},
	types.IntentProjectStatus:     {"status", "progress", "sprint", "release"},
	types.IntentTeamCommunication: {"slack", "chat", "thread", "message", "standup"},
	types.IntentPersonLookup:      {"who is", "owner", "assignee"},
	types.IntentTicketSearch:      {"bug", "issue", "error", "broken"},
}

// tierARules is evaluated in order; the first match wins.
var tierARules = []rule{
	{
		name:       "ticket_key",
		match:      func(query, lower string) bool { return ticketKeyPattern.MatchString(query) },
		intent:     types.IntentTicketLookup,
		sources:    []types.Source{types.SourceTickets},
		confidence: 0.95,
	},
	{
		name:       "documentation",
		match:      phraseMatch(types.IntentDocumentation),
		intent:     types.IntentDocumentation,
		sources:    []types.Source{types.SourceWiki, types.SourceDocs},
		confidence: 0.85,
	},
	{
		name:       "project_status",
		match:      phraseMatch(types.IntentProjectStatus),
		intent:     types.IntentProjectStatus,
		sources:    []types.Source{types.SourceTickets},
		confidence: 0.80,
	},
	{
		name:       "team_communication",
		match:      phraseMatch(types.IntentTeamCommunication),
		intent:     types.IntentTeamCommunication,
		sources:    []types.Source{types.SourceChat},
		confidence: 0.80,
	},
	{
		name:       "person_lookup",
		match:      phraseMatch(types.IntentPersonLookup),
		intent:     types.IntentPersonLookup,
		sources:    []types.Source{types.SourceChat, types.SourceWiki},
		confidence: 0.75,
	},
	{
		name:       "ticket_search",
		match:      phraseMatch(types.IntentTicketSearch),
		intent:     types.IntentTicketSearch,
		sources:    []types.Source{types.SourceTickets},
		confidence: 0.80,
	},
}

func phraseMatch(intent types.Intent) func(query, lower string) bool {
	phrases := phraseFamilies[intent]
	return func(query, lower string) bool {
		for _, p := range phrases {
			if strings.Contains(lower, p) {
				return true
			}
		}
		return false
	}
}

// TierA runs the fast pattern classifiers against query. ok is false if
// no rule matched, signaling the caller should fall through to Tier B.
func TierA(query string) (types.QueryAnalysis, bool) {
	lower := strings.ToLower(query)
	for _, r := range tierARules {
		if r.match(query, lower) {
			return types.QueryAnalysis{
				Intent:             r.intent,
				RecommendedSources: r.sources,
				Confidence:         r.confidence,
				Tier:               "pattern",
				Reasoning:          "matched tier-A rule: " + r.name,
			}, true
		}
	}
	return types.QueryAnalysis{}, false
}
