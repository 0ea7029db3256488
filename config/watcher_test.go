package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewFileWatcherDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	f := filepath.Join(tmpDir, "test.yaml")
	require.NoError(t, os.WriteFile(f, []byte("key: val"), 0o644))

	w, err := NewFileWatcher([]string{f})
	require.NoError(t, err)
	require.NotNil(t, w)

	assert.Equal(t, []string{f}, w.Paths())
	assert.False(t, w.IsRunning())
	assert.Equal(t, 100*time.Millisecond, w.debounceDelay)
}

func TestNewFileWatcherWithOptions(t *testing.T) {
	tmpDir := t.TempDir()
	f := filepath.Join(tmpDir, "test.yaml")
	require.NoError(t, os.WriteFile(f, []byte("key: val"), 0o644))

	w, err := NewFileWatcher([]string{f},
		WithDebounceDelay(500*time.Millisecond),
		WithWatcherLogger(zap.NewNop()),
	)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, w.debounceDelay)
}

func TestNewFileWatcherNonExistentPathWarns(t *testing.T) {
	w, err := NewFileWatcher([]string{"/nonexistent/path/config.yaml"})
	require.NoError(t, err)
	require.NotNil(t, w)
}

func TestFileWatcherAddPath(t *testing.T) {
	tmpDir := t.TempDir()
	f1 := filepath.Join(tmpDir, "a.yaml")
	f2 := filepath.Join(tmpDir, "b.yaml")
	require.NoError(t, os.WriteFile(f1, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(f2, []byte("b"), 0o644))

	w, err := NewFileWatcher([]string{f1})
	require.NoError(t, err)

	require.NoError(t, w.AddPath(f2))
	assert.Len(t, w.Paths(), 2)
}

func TestFileWatcherAddPathDuplicate(t *testing.T) {
	tmpDir := t.TempDir()
	f1 := filepath.Join(tmpDir, "a.yaml")
	require.NoError(t, os.WriteFile(f1, []byte("a"), 0o644))

	w, err := NewFileWatcher([]string{f1})
	require.NoError(t, err)

	require.NoError(t, w.AddPath(f1))
	assert.Len(t, w.Paths(), 1)
}

func TestFileWatcherRemovePath(t *testing.T) {
	tmpDir := t.TempDir()
	f1 := filepath.Join(tmpDir, "a.yaml")
	require.NoError(t, os.WriteFile(f1, []byte("a"), 0o644))

	w, err := NewFileWatcher([]string{f1})
	require.NoError(t, err)

	require.NoError(t, w.RemovePath(f1))
	assert.Empty(t, w.Paths())
}

func TestFileWatcherRemovePathNotFound(t *testing.T) {
	w, err := NewFileWatcher(nil)
	require.NoError(t, err)
	assert.Error(t, w.RemovePath("/nope"))
}

func TestFileWatcherStartStopIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	f1 := filepath.Join(tmpDir, "a.yaml")
	require.NoError(t, os.WriteFile(f1, []byte("a"), 0o644))

	w, err := NewFileWatcher([]string{f1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(ctx), "starting twice should error")

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	require.NoError(t, w.Stop(), "stopping twice is a no-op")
}

func TestFileWatcherDetectsWrite(t *testing.T) {
	tmpDir := t.TempDir()
	f1 := filepath.Join(tmpDir, "a.yaml")
	require.NoError(t, os.WriteFile(f1, []byte("a"), 0o644))

	w, err := NewFileWatcher([]string{f1}, WithDebounceDelay(10*time.Millisecond))
	require.NoError(t, err)

	changed := make(chan FileEvent, 1)
	w.OnChange(func(e FileEvent) { changed <- e })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(f1, []byte("a: 1"), 0o644))

	select {
	case e := <-changed:
		assert.Equal(t, f1, e.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for file change event")
	}
}
