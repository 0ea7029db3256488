package orchestrator

import (
	"sort"
	"strings"

	"github.com/fedquery/gateway/types"
)

// Rank deduplicates records on (source, id) — keeping the first
// occurrence — scores each by keyword overlap against query, and sorts
// descending by score with ties broken by preserving pre-sort order.
//
// Score = 2 * (query terms found in title, lowercased)
//       + 1 * (query terms found in content, lowercased)
//       + (5 - service priority)
func Rank(query string, records []types.Record, priorities map[types.Source]int) []types.Record {
	terms := queryTerms(query)

	seen := make(map[string]bool, len(records))
	deduped := make([]types.Record, 0, len(records))
	for _, r := range records {
		key := r.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
	}

	for i := range deduped {
		deduped[i].Score = score(deduped[i], terms, priorities[deduped[i].Source])
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Score > deduped[j].Score
	})
	return deduped
}

func score(r types.Record, terms []string, priority int) float64 {
	title := strings.ToLower(r.Title)
	content := strings.ToLower(r.Content)

	titleMatches, contentMatches := 0, 0
	for _, t := range terms {
		if strings.Contains(title, t) {
			titleMatches++
		}
		if strings.Contains(content, t) {
			contentMatches++
		}
	}
	return float64(2*titleMatches + contentMatches + (5 - priority))
}

// queryTerms splits a query into lowercase, de-duplicated, non-empty
// whitespace-separated terms.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
