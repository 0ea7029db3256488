package orchestrator

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fedquery/gateway/types"
)

// EventType identifies the kind of StreamSearch SSE event.
type EventType string

const (
	EventStart     EventType = "start"
	EventResults   EventType = "results"
	EventNoResults EventType = "no_results"
	EventError     EventType = "error"
	EventDone      EventType = "done"
)

// Event is one frame of the StreamSearch aggregation, serialized by the
// gateway's SSE handler.
type Event struct {
	Type         EventType      `json:"type"`
	Services     []types.Source `json:"services,omitempty"`
	Source       types.Source   `json:"source,omitempty"`
	Count        int            `json:"count,omitempty"`
	TimeMs       int64          `json:"time_ms,omitempty"`
	Results      []types.Record `json:"results,omitempty"`
	Error        string         `json:"error,omitempty"`
	TotalResults int            `json:"total_results,omitempty"`
	TopResults   []types.Record `json:"top_results,omitempty"`
}

const resultsPreviewSize = 3

// StreamSearch runs the same selection and dispatch as Search, but emits
// events as each service settles instead of waiting for the full
// aggregate. The returned channel is closed after the terminal "done"
// event. ctx cancellation stops dispatch early but the channel is always
// drained to closure.
func (o *Orchestrator) StreamSearch(ctx context.Context, query types.SearchQuery, requested []types.Source, limit int) <-chan Event {
	events := make(chan Event, 8)

	go func() {
		defer close(events)

		services := o.configSnapshot()
		sources := SelectSources(query.Query, requested, services)
		events <- Event{Type: EventStart, Services: sources}

		outcomes := make([]Outcome, len(sources))
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.cfg.MaxParallel)

		for i, src := range sources {
			i, src := i, src
			g.Go(func() error {
				oc := o.callOne(gctx, src, query)
				mu.Lock()
				outcomes[i] = oc
				mu.Unlock()
				events <- outcomeEvent(oc)
				return nil
			})
		}
		_ = g.Wait()

		var all []types.Record
		for _, oc := range outcomes {
			if oc.Err == nil {
				all = append(all, oc.Records...)
			}
		}
		ranked := Rank(query.Query, all, o.priorities())
		top := ranked
		if limit > 0 && len(top) > limit {
			top = top[:limit]
		}
		events <- Event{Type: EventDone, TotalResults: len(ranked), TopResults: top}
	}()

	return events
}

func outcomeEvent(oc Outcome) Event {
	if oc.Err != nil {
		return Event{Type: EventError, Source: oc.Source, TimeMs: oc.ElapsedMs, Error: oc.Err.Error()}
	}
	if len(oc.Records) == 0 {
		return Event{Type: EventNoResults, Source: oc.Source, TimeMs: oc.ElapsedMs}
	}
	preview := oc.Records
	if len(preview) > resultsPreviewSize {
		preview = preview[:resultsPreviewSize]
	}
	return Event{Type: EventResults, Source: oc.Source, Count: len(oc.Records), TimeMs: oc.ElapsedMs, Results: preview}
}
