package types

import "time"

// Record is the normalized unit of evidence every backend adapter produces,
// regardless of what shape the upstream service's API returns.
type Record struct {
	Source    Source         `json:"source"`
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	URL       string         `json:"url,omitempty"`
	Author    string         `json:"author,omitempty"`
	UpdatedAt time.Time      `json:"updated_at,omitempty"`
	Priority  int            `json:"priority,omitempty"` // source-specific urgency signal, 0 = none
	Score     float64        `json:"score,omitempty"`    // assigned by the ranker, not the adapter
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Key returns the (source, id) dedup identity of the record.
func (r Record) Key() string {
	return string(r.Source) + "/" + r.ID
}

// SearchQuery is what an orchestrator hands to each dispatched Integration Envelope.
type SearchQuery struct {
	Query     string         `json:"query"`
	Limit     int            `json:"limit,omitempty"`
	Filters   map[string]any `json:"filters,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	IssuedAt  time.Time      `json:"issued_at,omitempty"`
}

// QueryAnalysis is the router's classification of an incoming question.
type QueryAnalysis struct {
	Intent             Intent            `json:"intent"`
	Entities           []string          `json:"entities,omitempty"`
	RecommendedSources []Source          `json:"recommended_sources"`
	PerSourceQueries   map[Source]string `json:"per_source_queries,omitempty"`
	Confidence         float64           `json:"confidence"`
	Reasoning          string            `json:"reasoning,omitempty"`
	Tier               string            `json:"tier"` // "pattern", "llm", or "fallback"
}

// ChatTurn is one exchange in a conversation's history, persisted so the
// RAG assembler can include prior context in a follow-up question's prompt.
type ChatTurn struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SessionID string    `json:"session_id" gorm:"index"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty" gorm:"serializer:json"`
	CreatedAt time.Time `json:"created_at"`
}
