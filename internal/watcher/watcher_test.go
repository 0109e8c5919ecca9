package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/modelreg/internal/watcher"
)

func startWatcher(t *testing.T, dir string) <-chan []string {
	t.Helper()
	w, err := watcher.New(watcher.Config{
		Dir:         dir,
		Ext:         ".gob",
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")
	return onChange
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rf_1.gob")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o600))

	onChange := startWatcher(t, dir)

	// Rapid writes should coalesce into a single batch.
	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("v%d", i)), 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case keys := <-onChange:
		require.Equal(t, []string{"rf_1.gob"}, keys)
	case <-time.After(time.Second):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case keys := <-onChange:
		t.Fatalf("unexpected second notification: %v", keys)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_BatchesSeveralArtifacts(t *testing.T) {
	dir := t.TempDir()
	onChange := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "xgb_1.gob"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rf_1.gob"), []byte("x"), 0o600))

	select {
	case keys := <-onChange:
		require.Equal(t, []string{"rf_1.gob", "xgb_1.gob"}, keys)
	case <-time.After(time.Second):
		t.Fatal("expected notification but got timeout")
	}
}

func TestWatcher_ReportsRemovals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rf_1.gob")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	onChange := startWatcher(t, dir)
	require.NoError(t, os.Remove(path))

	select {
	case keys := <-onChange:
		require.Equal(t, []string{"rf_1.gob"}, keys)
	case <-time.After(time.Second):
		t.Fatal("expected notification but got timeout")
	}
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()
	otherPath := filepath.Join(dir, "registry.db")
	require.NoError(t, os.WriteFile(otherPath, []byte("initial"), 0o600))

	onChange := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(otherPath, []byte("other content"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".1234.tmp"), []byte("x"), 0o600))

	select {
	case keys := <-onChange:
		t.Fatalf("unexpected notification for irrelevant files: %v", keys)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	_, err = w.Start()
	require.Error(t, err)
}
