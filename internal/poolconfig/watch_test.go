package poolconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "respool.yaml")
	if err := os.WriteFile(path, []byte("pool:\n  max_connections: 4\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, cancel, err := NewWatcher(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer cancel()

	if err := os.WriteFile(path, []byte("pool:\n  max_connections: 9\n"), 0o644); err != nil {
		t.Fatalf("WriteFile rewrite: %v", err)
	}

	select {
	case cfg, ok := <-w.Updates():
		if !ok {
			t.Fatalf("updates channel closed before delivering a reload")
		}
		if cfg.Pool.MaxConnections != 9 {
			t.Fatalf("expected reloaded MaxConnections 9, got %d", cfg.Pool.MaxConnections)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("watcher did not deliver a reload after file change")
	}
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "respool.yaml")
	if err := os.WriteFile(path, []byte("pool:\n  max_connections: 4\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, cancel, err := NewWatcher(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	cancel()

	select {
	case _, ok := <-w.Updates():
		if ok {
			t.Fatalf("expected updates channel to be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatalf("updates channel did not close after cancel")
	}
}
