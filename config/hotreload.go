// =============================================================================
// Gateway configuration hot reload manager
// =============================================================================
// Reloads the full Config from disk whenever the watched YAML file changes,
// validates it, and swaps it in atomically for registered callbacks.
// =============================================================================
package config

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ReloadCallback is invoked after a successful reload with both the
// superseded and the newly active configuration.
type ReloadCallback func(oldConfig, newConfig *Config)

// HotReloadManager watches a config file and reloads Config on change.
// Unlike the teacher's field-level diffing and rollback machinery, this
// gateway has no granular per-field admin API (spec.md's settings surface
// is a single opaque Settings blob persisted in store.Store, not
// config.Config), so a reload always swaps the whole tree.
type HotReloadManager struct {
	mu sync.RWMutex

	config     *Config
	configPath string
	loader     *Loader
	watcher    *FileWatcher

	callbacks []ReloadCallback
	logger    *zap.Logger
}

// NewHotReloadManager builds a manager that reloads using loader and starts
// from an already-loaded initial config.
func NewHotReloadManager(loader *Loader, configPath string, initial *Config, logger *zap.Logger) (*HotReloadManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := NewFileWatcher([]string{configPath}, WithWatcherLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("hotreload: create watcher: %w", err)
	}

	m := &HotReloadManager{
		config:     initial,
		configPath: configPath,
		loader:     loader,
		watcher:    watcher,
		logger:     logger,
	}
	watcher.OnChange(func(FileEvent) { m.reload() })

	return m, nil
}

// Start begins watching the config file.
func (m *HotReloadManager) Start(ctx context.Context) error {
	return m.watcher.Start(ctx)
}

// Stop stops watching.
func (m *HotReloadManager) Stop() error {
	return m.watcher.Stop()
}

// Current returns the active configuration.
func (m *HotReloadManager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// OnReload registers a callback fired after every successful reload.
func (m *HotReloadManager) OnReload(cb ReloadCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

func (m *HotReloadManager) reload() {
	next, err := m.loader.Load()
	if err != nil {
		m.logger.Error("hotreload: reload failed, keeping prior config", zap.Error(err))
		return
	}

	m.mu.Lock()
	old := m.config
	m.config = next
	callbacks := make([]ReloadCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	m.logger.Info("hotreload: config reloaded", zap.String("path", m.configPath))
	for _, cb := range callbacks {
		cb(old, next)
	}
}
