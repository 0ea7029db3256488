package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fedquery/gateway/internal/database"
	"github.com/fedquery/gateway/types"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures the backing GORM dialector and its
// underlying sql.DB connection pool.
type Config struct {
	Driver string // "sqlite" (default) or "postgres"
	DSN    string // file path for sqlite, connection string for postgres

	// Pool tunes the underlying sql.DB; a zero value uses
	// database.DefaultPoolConfig().
	Pool database.PoolConfig
}

// DefaultConfig returns an in-process SQLite file store.
func DefaultConfig() Config {
	return Config{Driver: DriverSQLite, DSN: "gateway.db", Pool: database.DefaultPoolConfig()}
}

// settingsRow is the GORM model backing per-user settings. Settings
// itself stays a plain JSON-able struct in types/ so the core never
// imports gorm; this row is store-internal serialization only.
type settingsRow struct {
	UserID    string `gorm:"primaryKey"`
	Payload   string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (settingsRow) TableName() string { return "settings" }

// gormStore implements Store over a *gorm.DB. types.ChatTurn already
// carries gorm tags (primaryKey ID, indexed SessionID, serializer:json
// Sources), so it is used directly as the chat-turn table model.
type gormStore struct {
	db     *gorm.DB
	pool   *database.PoolManager
	logger *zap.Logger
}

// Open connects to the configured backend and auto-migrates both tables.
func Open(cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q (supported: sqlite, postgres)", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	if err := db.AutoMigrate(&settingsRow{}, &types.ChatTurn{}); err != nil {
		return nil, fmt.Errorf("store: auto-migrate: %w", err)
	}

	poolCfg := cfg.Pool
	if poolCfg == (database.PoolConfig{}) {
		poolCfg = database.DefaultPoolConfig()
	}
	pool, err := database.NewPoolManager(db, poolCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("store: init connection pool: %w", err)
	}

	logger.Info("store: connected", zap.String("driver", cfg.Driver))
	return &gormStore{db: db, pool: pool, logger: logger}, nil
}

func (s *gormStore) GetSettings(ctx context.Context, userID string) (types.Settings, bool, error) {
	var row settingsRow
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.Settings{}, false, nil
		}
		return types.Settings{}, false, fmt.Errorf("store: get settings: %w", err)
	}

	var settings types.Settings
	if err := json.Unmarshal([]byte(row.Payload), &settings); err != nil {
		return types.Settings{}, false, fmt.Errorf("store: decode settings: %w", err)
	}
	return settings, true, nil
}

func (s *gormStore) PutSettings(ctx context.Context, userID string, settings types.Settings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("store: encode settings: %w", err)
	}

	row := settingsRow{UserID: userID, Payload: string(payload), UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Assign(settingsRow{Payload: row.Payload, UpdatedAt: row.UpdatedAt}).
		FirstOrCreate(&row).Error
	if err != nil {
		return fmt.Errorf("store: put settings: %w", err)
	}
	return nil
}

// AppendChatTurn persists turn inside a retryable transaction: concurrent
// turns for the same session (a user and the assistant racing to append)
// can hit a transient serialization failure under Postgres, which
// WithTransactionRetry backs off and retries rather than surfacing to the
// caller.
func (s *gormStore) AppendChatTurn(ctx context.Context, turn types.ChatTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	if s.pool == nil {
		if err := s.db.WithContext(ctx).Create(&turn).Error; err != nil {
			return fmt.Errorf("store: append chat turn: %w", err)
		}
		return nil
	}
	err := s.pool.WithTransactionRetry(ctx, 3, func(tx *gorm.DB) error {
		return tx.Create(&turn).Error
	})
	if err != nil {
		return fmt.Errorf("store: append chat turn: %w", err)
	}
	return nil
}

func (s *gormStore) ListChatTurns(ctx context.Context, sessionID string, limit int) ([]types.ChatTurn, error) {
	q := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var turns []types.ChatTurn
	if err := q.Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("store: list chat turns: %w", err)
	}
	return turns, nil
}

func (s *gormStore) ClearChatHistory(ctx context.Context, sessionID string) (int64, error) {
	result := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&types.ChatTurn{})
	if result.Error != nil {
		return 0, fmt.Errorf("store: clear chat history: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *gormStore) Close() error {
	if s.pool != nil {
		return s.pool.Close()
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PoolStats reports the underlying connection pool's current utilization.
func (s *gormStore) PoolStats() database.PoolStats {
	if s.pool == nil {
		return database.PoolStats{}
	}
	return s.pool.GetStats()
}
