package adapters

import (
	"context"
	"strconv"
	"time"

	"github.com/fedquery/gateway/types"
)

// ChatAdapter searches a team chat service's message history (Slack,
// Teams, Mattermost, ...).
type ChatAdapter struct{ httpBase }

func NewChatAdapter(cfg types.ServiceConfig) *ChatAdapter {
	return &ChatAdapter{httpBase: newHTTPBase(types.SourceChat, cfg)}
}

type chatSearchResponse struct {
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	Text      string    `json:"text"`
	Permalink string    `json:"permalink"`
	User      string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

func (a *ChatAdapter) SearchImpl(ctx context.Context, query types.SearchQuery) ([]types.Record, error) {
	var resp chatSearchResponse
	params := map[string]string{"q": query.Query, "limit": strconv.Itoa(limit(query))}
	if err := a.get(ctx, "/search.messages", params, &resp); err != nil {
		return nil, err
	}

	records := make([]types.Record, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		title := m.Channel
		if title == "" {
			title = "message"
		}
		records = append(records, types.Record{
			Source:    types.SourceChat,
			ID:        m.ID,
			Title:     "#" + title,
			Content:   m.Text,
			URL:       m.Permalink,
			Author:    m.User,
			UpdatedAt: m.Timestamp,
			Metadata:  map[string]any{"channel": m.Channel},
		})
	}
	return records, nil
}
