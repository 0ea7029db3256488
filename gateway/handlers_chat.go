package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fedquery/gateway/types"
)

const chatHistoryTurns = 10

// ChatRequest is the body of POST /api/chat and /api/chat/stream.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// DocumentRef is the compact evidence shape returned in a chat response's
// context field and the stream's context/done events.
type DocumentRef struct {
	Source types.Source `json:"source"`
	Title  string       `json:"title"`
	URL    string       `json:"url,omitempty"`
}

func toDocumentRefs(records []types.Record, limit int) []DocumentRef {
	if limit > len(records) {
		limit = len(records)
	}
	out := make([]DocumentRef, 0, limit)
	for _, rec := range records[:limit] {
		out = append(out, DocumentRef{Source: rec.Source, Title: rec.Title, URL: rec.URL})
	}
	return out
}

func sourcesToStrings(sources []types.Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = string(s)
	}
	return out
}

func validateChatRequest(req ChatRequest) *types.Error {
	if strings.TrimSpace(req.Message) == "" {
		return types.NewError(types.ErrInvalidInput, "message is required")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return types.NewError(types.ErrInvalidInput, "session_id is required")
	}
	return nil
}

// chatSetupMessage is shown when the router determines the query needs a
// backend service that isn't currently configured.
func chatSetupMessage(missing types.Source) string {
	return "This question requires access to the " + string(missing) +
		" service, which isn't configured yet. Ask an administrator to add credentials for it."
}

// searchLimit returns the per-service result cap from stored settings,
// falling back to the store-wide default when the user has none saved.
func (g *Gateway) searchLimit(userID string, r *http.Request) int {
	if userID == "" || g.deps.Store == nil {
		return types.DefaultSettings().MaxResultsPerSrc
	}
	settings, found, err := g.deps.Store.GetSettings(r.Context(), userID)
	if err != nil || !found {
		return types.DefaultSettings().MaxResultsPerSrc
	}
	if settings.MaxResultsPerSrc <= 0 {
		return types.DefaultSettings().MaxResultsPerSrc
	}
	return settings.MaxResultsPerSrc
}

type chatResponse struct {
	Response      string        `json:"response"`
	Sources       []types.Source `json:"sources"`
	Context       []DocumentRef `json:"context"`
	RequiresSetup bool          `json:"requires_setup,omitempty"`
}

// HandleChat answers a question synchronously: route, retrieve, assemble.
func (g *Gateway) HandleChat(w http.ResponseWriter, r *http.Request) {
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

	userID := queryUserID(r)
	ctx := r.Context()

	decision := g.deps.Router.Route(ctx, req.Message)
	if decision.RequiresSetup {
		g.persistTurn(req.SessionID, types.RoleUser, req.Message, nil)
		msg := chatSetupMessage(decision.MissingSource)
		g.persistTurn(req.SessionID, types.RoleAssistant, msg, nil)
		WriteJSON(w, http.StatusOK, chatResponse{
			Response:      msg,
			Sources:       []types.Source{},
			Context:       []DocumentRef{},
			RequiresSetup: true,
		})
		return
	}

	query := types.SearchQuery{
		Query:     req.Message,
		Limit:     g.searchLimit(userID, r),
		RequestID: RequestIDFromContext(ctx),
		IssuedAt:  time.Now(),
	}

	result, err := g.deps.Orchestrator.Search(ctx, query, decision.Analysis.RecommendedSources)
	if err != nil {
		WriteErrorMessage(w, types.ErrInternal, "search failed", g.deps.Logger)
		return
	}

	history, _ := g.deps.Store.ListChatTurns(ctx, req.SessionID, chatHistoryTurns)

	question := req.Message
	if len(result.Results) == 0 {
		question = question + "\n\n" + NoEvidenceNote
	}

	answer, err := g.deps.Assembler.Answer(ctx, question, result.Results, history)
	if err != nil {
		g.handleAssemblerError(w, err)
		return
	}

	g.persistTurn(req.SessionID, types.RoleUser, req.Message, nil)
	g.persistTurn(req.SessionID, types.RoleAssistant, answer, result.SourcesResponded)

	WriteJSON(w, http.StatusOK, chatResponse{
		Response: answer,
		Sources:  result.SourcesResponded,
		Context:  toDocumentRefs(result.Results, 3),
	})
}

// NoEvidenceNote is appended to the question sent to the assembler when
// no backend service returned results, since Assembler.Answer has no
// separate hook for signaling an empty evidence set.
const NoEvidenceNote = "(No evidence was retrieved from any backend service for this question; answer from conversation history alone if possible, and say so.)"

func (g *Gateway) handleAssemblerError(w http.ResponseWriter, err error) {
	var e *types.Error
	if types.AsError(err, &e) {
		WriteError(w, e, g.deps.Logger)
		return
	}
	WriteError(w, types.NewError(types.ErrLLMError, err.Error()), g.deps.Logger)
}

func (g *Gateway) recordTurn(ctx context.Context, sessionID string, role types.Role, content string, sources []types.Source) error {
	return g.deps.Store.AppendChatTurn(ctx, types.ChatTurn{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Sources:   sourcesToStrings(sources),
		CreatedAt: time.Now(),
	})
}

// persistTurn writes a chat turn off the request path through the
// background pool, so the response does not wait on a store round trip.
// Falls back to a synchronous write if the background pool is absent or
// full.
func (g *Gateway) persistTurn(sessionID string, role types.Role, content string, sources []types.Source) {
	if g.deps.BackgroundPool == nil {
		if err := g.recordTurn(context.Background(), sessionID, role, content, sources); err != nil {
			g.deps.Logger.Warn("failed to persist chat turn", zap.Error(err))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	task := func(taskCtx context.Context) error {
		defer cancel()
		return g.recordTurn(taskCtx, sessionID, role, content, sources)
	}
	if err := g.deps.BackgroundPool.Submit(ctx, task); err != nil {
		cancel()
		g.deps.Logger.Warn("chat turn background submit failed, persisting inline", zap.Error(err))
		if err := g.recordTurn(context.Background(), sessionID, role, content, sources); err != nil {
			g.deps.Logger.Warn("failed to persist chat turn", zap.Error(err))
		}
	}
}

// HandleChatHistory lists a session's persisted turns.
func (g *Gateway) HandleChatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	turns, err := g.deps.Store.ListChatTurns(r.Context(), sessionID, 0)
	if err != nil {
		WriteErrorMessage(w, types.ErrInternal, "failed to load history", g.deps.Logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"history": turns})
}

type clearHistoryResponse struct {
	Status       string `json:"status"`
	DeletedCount int64  `json:"deleted_count"`
}

// HandleClearHistory deletes every turn for a session.
func (g *Gateway) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	n, err := g.deps.Store.ClearChatHistory(r.Context(), sessionID)
	if err != nil {
		WriteErrorMessage(w, types.ErrInternal, "failed to clear history", g.deps.Logger)
		return
	}
	WriteJSON(w, http.StatusOK, clearHistoryResponse{Status: "ok", DeletedCount: n})
}
