package adapters

import (
	"context"
	"strconv"
	"time"

	"github.com/fedquery/gateway/types"
)

// WikiAdapter searches an internal documentation/wiki service (Confluence,
// Notion, internal wiki, ...).
type WikiAdapter struct{ httpBase }

func NewWikiAdapter(cfg types.ServiceConfig) *WikiAdapter {
	return &WikiAdapter{httpBase: newHTTPBase(types.SourceWiki, cfg)}
}

type wikiSearchResponse struct {
	Pages []wikiPage `json:"pages"`
}

type wikiPage struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	URL       string    `json:"url"`
	Author    string    `json:"author"`
	Space     string    `json:"space"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *WikiAdapter) SearchImpl(ctx context.Context, query types.SearchQuery) ([]types.Record, error) {
	var resp wikiSearchResponse
	params := map[string]string{"q": query.Query, "limit": strconv.Itoa(limit(query))}
	if err := a.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	records := make([]types.Record, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		records = append(records, types.Record{
			Source:    types.SourceWiki,
			ID:        p.ID,
			Title:     p.Title,
			Content:   p.Excerpt,
			URL:       p.URL,
			Author:    p.Author,
			UpdatedAt: p.UpdatedAt,
			Metadata:  map[string]any{"space": p.Space},
		})
	}
	return records, nil
}
