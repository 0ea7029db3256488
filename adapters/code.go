package adapters

import (
	"context"
	"strconv"
	"time"

	"github.com/fedquery/gateway/types"
)

// CodeAdapter searches a code host (GitHub, GitLab, internal Gitea, ...)
// for matching files, PRs or issues.
type CodeAdapter struct{ httpBase }

func NewCodeAdapter(cfg types.ServiceConfig) *CodeAdapter {
	return &CodeAdapter{httpBase: newHTTPBase(types.SourceCode, cfg)}
}

type codeSearchResponse struct {
	Items []codeItem `json:"items"`
}

type codeItem struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Repository string    `json:"repository"`
	Snippet    string    `json:"snippet"`
	URL        string    `json:"url"`
	Author     string    `json:"author"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a *CodeAdapter) SearchImpl(ctx context.Context, query types.SearchQuery) ([]types.Record, error) {
	var resp codeSearchResponse
	params := map[string]string{"q": query.Query, "limit": strconv.Itoa(limit(query))}
	if err := a.get(ctx, "/search/code", params, &resp); err != nil {
		return nil, err
	}

	records := make([]types.Record, 0, len(resp.Items))
	for _, item := range resp.Items {
		records = append(records, types.Record{
			Source:    types.SourceCode,
			ID:        item.ID,
			Title:     item.Repository + ": " + item.Path,
			Content:   item.Snippet,
			URL:       item.URL,
			Author:    item.Author,
			UpdatedAt: item.UpdatedAt,
			Metadata:  map[string]any{"repository": item.Repository, "path": item.Path},
		})
	}
	return records, nil
}
