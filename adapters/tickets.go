package adapters

import (
	"context"
	"strconv"
	"time"

	"github.com/fedquery/gateway/types"
)

// TicketsAdapter translates a ticket-tracker search (issue key lookup or
// free-text search) into Records. Vendor-specific field mapping (Jira,
// Linear, GitHub Issues, ...) lives entirely in the JSON shape below;
// swapping vendors means changing ticketSearchResponse, not the envelope.
type TicketsAdapter struct{ httpBase }

func NewTicketsAdapter(cfg types.ServiceConfig) *TicketsAdapter {
	return &TicketsAdapter{httpBase: newHTTPBase(types.SourceTickets, cfg)}
}

type ticketSearchResponse struct {
	Issues []ticketIssue `json:"issues"`
}

type ticketIssue struct {
	Key       string    `json:"key"`
	Summary   string    `json:"summary"`
	Body      string    `json:"description"`
	URL       string    `json:"url"`
	Assignee  string    `json:"assignee"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *TicketsAdapter) SearchImpl(ctx context.Context, query types.SearchQuery) ([]types.Record, error) {
	var resp ticketSearchResponse
	params := map[string]string{"q": query.Query, "limit": strconv.Itoa(limit(query))}
	if err := a.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	records := make([]types.Record, 0, len(resp.Issues))
	for _, issue := range resp.Issues {
		records = append(records, types.Record{
			Source:    types.SourceTickets,
			ID:        issue.Key,
			Title:     issue.Key + ": " + issue.Summary,
			Content:   issue.Body,
			URL:       issue.URL,
			Author:    issue.Assignee,
			UpdatedAt: issue.UpdatedAt,
			Priority:  ticketPriorityRank(issue.Priority),
			Metadata: map[string]any{
				"status":   issue.Status,
				"priority": issue.Priority,
			},
		})
	}
	return records, nil
}

// ticketPriorityRank maps a vendor priority label to the numeric urgency
// signal Record.Priority carries; unrecognized labels rank lowest.
func ticketPriorityRank(label string) int {
	switch label {
	case "critical", "blocker":
		return 4
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	default:
		return 0
	}
}
