package adapters

import (
	"context"
	"strconv"

	"github.com/fedquery/gateway/types"
)

// WebAdapter performs a general web search through a configured search
// API (internal proxy, third-party search provider, ...). Unlike the
// other adapters, results carry no native UpdatedAt/author signal.
type WebAdapter struct{ httpBase }

func NewWebAdapter(cfg types.ServiceConfig) *WebAdapter {
	return &WebAdapter{httpBase: newHTTPBase(types.SourceWeb, cfg)}
}

type webSearchResponse struct {
	Results []webResult `json:"results"`
}

type webResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

func (a *WebAdapter) SearchImpl(ctx context.Context, query types.SearchQuery) ([]types.Record, error) {
	var resp webSearchResponse
	params := map[string]string{"q": query.Query, "limit": strconv.Itoa(limit(query))}
	if err := a.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	records := make([]types.Record, 0, len(resp.Results))
	for i, r := range resp.Results {
		records = append(records, types.Record{
			Source:  types.SourceWeb,
			ID:      r.URL,
			Title:   r.Title,
			Content: r.Snippet,
			URL:     r.URL,
			// Web results carry no native ordering signal beyond the
			// search API's own rank; preserve it as a priority bonus so
			// an early result isn't drowned out by the ranker's
			// keyword-overlap scoring alone.
			Priority: max(0, 3-i),
		})
	}
	return records, nil
}
