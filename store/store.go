// Package store persists the two opaque KV collections the gateway core
// needs: per-user settings and per-session chat history. Either a SQLite
// or Postgres GORM dialector satisfies the same minimal contract, so the
// choice of engine is a deployment concern, not a code-path branch.
package store

import (
	"context"

	"github.com/fedquery/gateway/internal/database"
	"github.com/fedquery/gateway/types"
)

// Store is the opaque KV contract the gateway core depends on. Keys are
// (session_id) for chat history and (user_id) for settings, per spec.md
// §6's "Persisted state" paragraph; the core never inspects a key's
// internal structure.
type Store interface {
	// GetSettings returns a user's stored settings. found is false if no
	// row exists yet, in which case the caller should fall back to
	// types.DefaultSettings().
	GetSettings(ctx context.Context, userID string) (settings types.Settings, found bool, err error)

	// PutSettings upserts a user's settings. Idempotent: two identical
	// calls leave the same stored value.
	PutSettings(ctx context.Context, userID string, settings types.Settings) error

	// AppendChatTurn persists one turn, stamping SessionID if absent.
	AppendChatTurn(ctx context.Context, turn types.ChatTurn) error

	// ListChatTurns returns up to limit turns for a session in
	// chronological order. limit <= 0 means no cap.
	ListChatTurns(ctx context.Context, sessionID string, limit int) ([]types.ChatTurn, error)

	// ClearChatHistory deletes every turn for a session and reports the
	// number of rows removed.
	ClearChatHistory(ctx context.Context, sessionID string) (int64, error)

	// Close releases the underlying connection.
	Close() error

	// PoolStats reports the underlying connection pool's current
	// utilization, or the zero value if the store has no pool (a fake
	// store used in tests, for instance).
	PoolStats() database.PoolStats
}
