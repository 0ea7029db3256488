package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/fedquery/gateway/types"
)

// HandleChatStream answers a question over SSE: start, sources, context,
// a sequence of chunk events carrying the answer token by token, then
// done. A required-source-missing decision short-circuits straight to a
// single chunk plus a done event carrying requires_setup.
func (g *Gateway) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, g.deps.Logger) {
		return
	}
	var req ChatRequest
	if err := DecodeJSONBody(w, r, &req, g.deps.Logger); err != nil {
		return
	}
	if verr := validateChatRequest(req); verr != nil {
		WriteError(w, verr, g.deps.Logger)
		return
	}

	sse := newSSEWriter(w)
	if sse == nil {
		WriteErrorMessage(w, types.ErrInternal, "streaming unsupported", g.deps.Logger)
		return
	}

	userID := queryUserID(r)
	ctx := r.Context()

	_ = sse.event(map[string]any{"type": "start"})

	decision := g.deps.Router.Route(ctx, req.Message)
	if decision.RequiresSetup {
		msg := chatSetupMessage(decision.MissingSource)
		_ = sse.event(map[string]any{"type": "chunk", "text": msg})
		_ = sse.event(map[string]any{
			"type": "done", "sources": []types.Source{}, "used_sources": []types.Source{},
			"documents": []DocumentRef{}, "requires_setup": true,
		})
		g.persistTurn(req.SessionID, types.RoleUser, req.Message, nil)
		g.persistTurn(req.SessionID, types.RoleAssistant, msg, nil)
		return
	}

	_ = sse.event(map[string]any{"type": "sources", "sources": decision.Analysis.RecommendedSources})

	query := types.SearchQuery{
		Query:     req.Message,
		Limit:     g.searchLimit(userID, r),
		RequestID: RequestIDFromContext(ctx),
		IssuedAt:  time.Now(),
	}
	result, err := g.deps.Orchestrator.Search(ctx, query, decision.Analysis.RecommendedSources)
	if err != nil {
		_ = sse.event(map[string]any{"type": "error", "message": "search failed"})
		return
	}

	documents := toDocumentRefs(result.Results, 3)
	_ = sse.event(map[string]any{
		"type": "context", "count": len(result.Results),
		"used_sources": result.SourcesResponded, "documents": documents,
	})

	history, _ := g.deps.Store.ListChatTurns(ctx, req.SessionID, chatHistoryTurns)

	question := req.Message
	if len(result.Results) == 0 {
		question = question + "\n\n" + NoEvidenceNote
	}

	stream, err := g.deps.Assembler.StreamAnswer(ctx, question, result.Results, history)
	if err != nil {
		_ = sse.event(map[string]any{"type": "error", "message": err.Error()})
		return
	}

	var answer strings.Builder
	for chunk := range stream {
		if chunk.Err != nil {
			_ = sse.event(map[string]any{"type": "error", "message": chunk.Err.Message})
			return
		}
		answer.WriteString(chunk.Delta)
		if chunk.Delta != "" {
			_ = sse.event(map[string]any{"type": "chunk", "text": chunk.Delta})
		}
	}

	g.persistTurn(req.SessionID, types.RoleUser, req.Message, nil)
	g.persistTurn(req.SessionID, types.RoleAssistant, answer.String(), result.SourcesResponded)

	_ = sse.event(map[string]any{
		"type": "done", "sources": decision.Analysis.RecommendedSources,
		"used_sources": result.SourcesResponded, "documents": documents,
	})
}
