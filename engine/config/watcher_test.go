package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[renderer]\ninflight_frames = 3\n"), 0o644))
	initial, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(path, initial)
	require.NoError(t, err)

	var mu sync.Mutex
	var received []*Config
	w.Subscribe(func(cfg *Config) {
		mu.Lock()
		received = append(received, cfg)
		mu.Unlock()
	})
	assert.Same(t, initial, w.Current())

	// Unrelated files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.toml"), []byte("x"), 0o644))

	replaceFile(t, path, "[renderer]\ninflight_frames = 1\n")
	require.Eventually(t, func() bool {
		return w.Current().Renderer.InflightFrames == 1
	}, 5*time.Second, 10*time.Millisecond)

	// A broken file keeps the last good config.
	replaceFile(t, path, "[renderer]\ninflight_frames = 9\n")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, w.Current().Renderer.InflightFrames)

	require.NoError(t, w.Close())
	assert.Error(t, w.Close())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, received)
	assert.Equal(t, 1, received[len(received)-1].Renderer.InflightFrames)
}

// replaceFile swaps the content in with a rename so the watcher never reads a
// half written file.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestWatcherMissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing", "config.toml"), Default())
	assert.Error(t, err)
}
