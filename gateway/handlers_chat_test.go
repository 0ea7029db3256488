package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fedquery/gateway/internal/pool"
	"github.com/fedquery/gateway/llm"
	"github.com/fedquery/gateway/orchestrator"
	"github.com/fedquery/gateway/rag"
	"github.com/fedquery/gateway/router"
	"github.com/fedquery/gateway/types"
)

type stubChatProvider struct {
	content string
}

func (p *stubChatProvider) Completion(_ context.Context, _ *llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Content: p.content}, nil
}
func (p *stubChatProvider) Stream(_ context.Context, _ *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk, 1)
	ch <- llm.StreamChunk{Delta: p.content}
	close(ch)
	return ch, nil
}
func (p *stubChatProvider) HealthCheck(_ context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}
func (p *stubChatProvider) Name() string { return "stub" }

// alwaysAvailable is an AvailabilityChecker that never forces a
// requires-setup short-circuit, used by tests that want to reach the
// search/answer path regardless of router intent.
func alwaysAvailable(types.Source) bool { return true }

func newTestChatDeps(t *testing.T, fs *fakeStore, answer string) *Deps {
	t.Helper()
	orch := orchestrator.New(orchestrator.DefaultConfig(), zap.NewNop())
	provider := &stubChatProvider{content: answer}
	rt := router.New(provider, "", alwaysAvailable, zap.NewNop())
	assembler := rag.New(provider, "test-model", rag.DefaultConfig(), zap.NewNop())

	return &Deps{
		Orchestrator: orch,
		Router:       rt,
		Assembler:    assembler,
		Store:        fs,
		Logger:       zap.NewNop(),
	}
}

func TestHandleChat_ValidatesBody(t *testing.T) {
	g := New(newTestChatDeps(t, newFakeStore(), "ignored"))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"message":""}`))
	g.HandleChat(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChat_AnswersAndPersistsSynchronously(t *testing.T) {
	fs := newFakeStore()
	g := New(newTestChatDeps(t, fs, "the answer is 42"))

	body := `{"message":"what is the meaning of life","session_id":"sess-1"}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(body))
	g.HandleChat(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "the answer is 42", resp.Response)
	assert.False(t, resp.RequiresSetup)

	// No BackgroundPool configured: persistTurn falls back to a
	// synchronous write, so both turns are visible immediately.
	assert.Equal(t, 2, fs.turnCount("sess-1"))
}

func TestHandleChat_PersistsThroughBackgroundPool(t *testing.T) {
	fs := newFakeStore()
	deps := newTestChatDeps(t, fs, "answer via pool")
	bgPool := pool.NewGoroutinePool(pool.DefaultGoroutinePoolConfig())
	defer bgPool.Close()
	deps.BackgroundPool = bgPool
	g := New(deps)

	body := `{"message":"background write test","session_id":"sess-2"}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(body))
	g.HandleChat(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	// Close drains the pool's queue before returning, so by the time it
	// returns both persistTurn submissions have completed.
	bgPool.Close()
	assert.Equal(t, 2, fs.turnCount("sess-2"))
}

func TestHandleChatHistory(t *testing.T) {
	fs := newFakeStore()
	require.NoError(t, fs.AppendChatTurn(context.Background(), types.ChatTurn{SessionID: "s1", Role: types.RoleUser, Content: "hi"}))
	g := New(&Deps{Store: fs, Logger: zap.NewNop()})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/chat/history/s1", nil)
	r.SetPathValue("session_id", "s1")
	g.HandleChatHistory(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hi")
}

func TestHandleClearHistory(t *testing.T) {
	fs := newFakeStore()
	require.NoError(t, fs.AppendChatTurn(context.Background(), types.ChatTurn{SessionID: "s2", Role: types.RoleUser, Content: "hi"}))
	g := New(&Deps{Store: fs, Logger: zap.NewNop()})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/chat/history/s2", nil)
	r.SetPathValue("session_id", "s2")
	g.HandleClearHistory(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp clearHistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.DeletedCount)
	assert.Equal(t, 0, fs.turnCount("s2"))
}
