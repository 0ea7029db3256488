package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fedquery/gateway/types"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetSettingsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, found, err := s.GetSettings(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPutThenGetSettingsRoundTrips(t *testing.T) {
	s := newTestStore(t)
	want := types.Settings{DefaultSources: []types.Source{types.SourceWiki}, MaxResultsPerSrc: 7, RankingEnabled: true, AnswerModel: "test-model"}

	require.NoError(t, s.PutSettings(context.Background(), "alice", want))

	got, found, err := s.GetSettings(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, got)
}

func TestPutSettingsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	settings := types.Settings{AnswerModel: "m1"}

	require.NoError(t, s.PutSettings(context.Background(), "bob", settings))
	require.NoError(t, s.PutSettings(context.Background(), "bob", settings))

	got, found, err := s.GetSettings(context.Background(), "bob")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, settings, got)
}

func TestPutSettingsOverwritesPriorValue(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutSettings(context.Background(), "carol", types.Settings{AnswerModel: "m1"}))
	require.NoError(t, s.PutSettings(context.Background(), "carol", types.Settings{AnswerModel: "m2"}))

	got, _, err := s.GetSettings(context.Background(), "carol")
	require.NoError(t, err)
	assert.Equal(t, "m2", got.AnswerModel)
}

func TestAppendAndListChatTurnsPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendChatTurn(ctx, types.ChatTurn{SessionID: "sess-1", Role: types.RoleUser, Content: "first"}))
	require.NoError(t, s.AppendChatTurn(ctx, types.ChatTurn{SessionID: "sess-1", Role: types.RoleAssistant, Content: "second"}))
	require.NoError(t, s.AppendChatTurn(ctx, types.ChatTurn{SessionID: "sess-2", Role: types.RoleUser, Content: "other session"}))

	turns, err := s.ListChatTurns(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, "second", turns[1].Content)
}

func TestListChatTurnsRespectsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendChatTurn(ctx, types.ChatTurn{SessionID: "sess-1", Role: types.RoleUser, Content: "turn"}))
	}

	turns, err := s.ListChatTurns(ctx, "sess-1", 3)
	require.NoError(t, err)
	assert.Len(t, turns, 3)
}

func TestClearChatHistoryRemovesOnlyThatSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AppendChatTurn(ctx, types.ChatTurn{SessionID: "sess-1", Content: "a"}))
	require.NoError(t, s.AppendChatTurn(ctx, types.ChatTurn{SessionID: "sess-2", Content: "b"}))

	deleted, err := s.ClearChatHistory(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := s.ListChatTurns(ctx, "sess-2", 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestOpenRejectsUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "mysql"}, zap.NewNop())
	assert.Error(t, err)
}
