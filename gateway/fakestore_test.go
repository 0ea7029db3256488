package gateway

import (
	"context"
	"sync"

	"github.com/fedquery/gateway/internal/database"
	"github.com/fedquery/gateway/types"
)

// fakeStore is an in-memory store.Store for handler tests, avoiding a
// real database connection.
type fakeStore struct {
	mu       sync.Mutex
	settings map[string]types.Settings
	turns    map[string][]types.ChatTurn

	putSettingsErr error
	appendTurnErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings: make(map[string]types.Settings),
		turns:    make(map[string][]types.ChatTurn),
	}
}

func (f *fakeStore) GetSettings(_ context.Context, userID string) (types.Settings, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[userID]
	return s, ok, nil
}

func (f *fakeStore) PutSettings(_ context.Context, userID string, settings types.Settings) error {
	if f.putSettingsErr != nil {
		return f.putSettingsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[userID] = settings
	return nil
}

func (f *fakeStore) AppendChatTurn(_ context.Context, turn types.ChatTurn) error {
	if f.appendTurnErr != nil {
		return f.appendTurnErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns[turn.SessionID] = append(f.turns[turn.SessionID], turn)
	return nil
}

func (f *fakeStore) ListChatTurns(_ context.Context, sessionID string, limit int) ([]types.ChatTurn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	turns := f.turns[sessionID]
	if limit > 0 && limit < len(turns) {
		turns = turns[len(turns)-limit:]
	}
	out := make([]types.ChatTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (f *fakeStore) ClearChatHistory(_ context.Context, sessionID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.turns[sessionID]))
	delete(f.turns, sessionID)
	return n, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) PoolStats() database.PoolStats { return database.PoolStats{} }

func (f *fakeStore) turnCount(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.turns[sessionID])
}
