package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zjrosen/cheds/internal/watcher"
)

func start(t *testing.T, cfg watcher.Config) (<-chan struct{}, *watcher.Watcher) {
	t.Helper()
	w, err := watcher.New(cfg)
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")
	return onChange, w
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CHEDS-LT-01_applicants.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))

	onChange, _ := start(t, watcher.Config{Dir: dir, Pattern: "*.csv", DebounceDur: 50 * time.Millisecond})

	for i := range 10 {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("a\n%d\n", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-onChange:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0o644))

	onChange, _ := start(t, watcher.Config{Dir: dir, Pattern: "*.csv", DebounceDur: 50 * time.Millisecond})

	require.NoError(t, os.WriteFile(other, []byte("changed"), 0o644))

	select {
	case <-onChange:
		t.Fatal("should not notify for non-matching files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_RemovalNotifies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CHEDS-HR-21_emp.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	onChange, _ := start(t, watcher.Config{Dir: dir, Pattern: "*.csv", DebounceDur: 30 * time.Millisecond})

	require.NoError(t, os.Remove(path))

	select {
	case <-onChange:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for removed data file")
	}
}

func TestWatcher_RecursivePattern(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2024")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	onChange, _ := start(t, watcher.Config{Dir: dir, Pattern: "**/*.csv", DebounceDur: 30 * time.Millisecond})

	require.NoError(t, os.WriteFile(filepath.Join(sub, "CHEDS-FIN-25_fin.csv"), []byte("a\n"), 0o644))

	select {
	case <-onChange:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for file in subdirectory")
	}
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	_, err = w.Start()
	require.Error(t, err)
}

func TestWatcher_InvalidPattern(t *testing.T) {
	_, err := watcher.New(watcher.Config{Dir: t.TempDir(), Pattern: "[", DebounceDur: time.Second})
	require.Error(t, err)
}

func TestWatcher_StopReleasesGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w, err := watcher.New(watcher.Config{Dir: t.TempDir(), Pattern: "*.csv", DebounceDur: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = w.Start()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		assert.NoError(t, w.Stop(), "second Stop must be a no-op")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/data/csv_files")

	assert.Equal(t, "/data/csv_files", cfg.Dir)
	assert.Equal(t, "*.csv", cfg.Pattern)
	assert.Equal(t, 1*time.Second, cfg.DebounceDur)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, watcher.Exists(dir))
	assert.False(t, watcher.Exists(filepath.Join(dir, "nope")))

	file := filepath.Join(dir, "f.csv")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.False(t, watcher.Exists(file))
}
