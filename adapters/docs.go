package adapters

import (
	"context"
	"strconv"
	"time"

	"github.com/fedquery/gateway/types"
)

// DocsAdapter searches a document store (Google Drive, SharePoint,
// internal doc repository, ...).
type DocsAdapter struct{ httpBase }

func NewDocsAdapter(cfg types.ServiceConfig) *DocsAdapter {
	return &DocsAdapter{httpBase: newHTTPBase(types.SourceDocs, cfg)}
}

type docsSearchResponse struct {
	Documents []docEntry `json:"documents"`
}

type docEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Snippet   string    `json:"snippet"`
	URL       string    `json:"url"`
	Owner     string    `json:"owner"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *DocsAdapter) SearchImpl(ctx context.Context, query types.SearchQuery) ([]types.Record, error) {
	var resp docsSearchResponse
	params := map[string]string{"q": query.Query, "limit": strconv.Itoa(limit(query))}
	if err := a.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	records := make([]types.Record, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		records = append(records, types.Record{
			Source:    types.SourceDocs,
			ID:        d.ID,
			Title:     d.Title,
			Content:   d.Snippet,
			URL:       d.URL,
			Author:    d.Owner,
			UpdatedAt: d.UpdatedAt,
		})
	}
	return records, nil
}
