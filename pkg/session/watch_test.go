package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func startWatcher(t *testing.T, config WatcherConfig) *Watcher {
	t.Helper()
	w, err := NewWatcher(config)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	// Give the watch time to settle before mutating the directory.
	time.Sleep(100 * time.Millisecond)
	return w
}

func awaitChange(t *testing.T, w *Watcher, timeout time.Duration) Change {
	t.Helper()
	select {
	case ch, ok := <-w.Changes():
		if !ok {
			t.Fatal("change channel closed unexpectedly")
		}
		return ch
	case <-time.After(timeout):
		t.Fatal("no change event within timeout")
	}
	return Change{}
}

func TestWatcherReportsExternalModification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")
	if err := os.WriteFile(path, []byte(`{"version":"1.2"}`), 0644); err != nil {
		t.Fatal(err)
	}

	w := startWatcher(t, WatcherConfig{Path: path})

	if err := WriteFileAtomic(path, []byte(`{"version":"1.2","notes":[]}`), 0644); err != nil {
		t.Fatalf("external write failed: %v", err)
	}

	ch := awaitChange(t, w, 2*time.Second)
	if ch.Kind != ChangeModified {
		t.Errorf("kind = %s, want %s", ch.Kind, ChangeModified)
	}
	if ch.Path != filepath.Clean(path) {
		t.Errorf("path = %s, want %s", ch.Path, path)
	}
}

func TestWatcherReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	w := startWatcher(t, WatcherConfig{Path: path})

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	ch := awaitChange(t, w, 2*time.Second)
	if ch.Kind != ChangeRemoved {
		t.Errorf("kind = %s, want %s", ch.Kind, ChangeRemoved)
	}
}

func TestWatcherIgnoresOwnWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var own time.Time
	recordOwn := func() {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat after own write: %v", err)
		}
		mu.Lock()
		own = info.ModTime()
		mu.Unlock()
	}

	w := startWatcher(t, WatcherConfig{
		Path: path,
		LastOwnWrite: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return own
		},
	})

	// Our own save: write, then record the resulting mtime the way the
	// manager does. The event must be suppressed.
	if err := WriteFileAtomic(path, []byte(`{"version":"1.2"}`), 0644); err != nil {
		t.Fatal(err)
	}
	recordOwn()

	select {
	case ch := <-w.Changes():
		t.Fatalf("own write leaked through as %+v", ch)
	case <-time.After(400 * time.Millisecond):
	}

	// An external writer does not update the recorded mtime, so its change
	// comes through.
	time.Sleep(50 * time.Millisecond)
	if err := WriteFileAtomic(path, []byte(`{"version":"1.2","notes":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	ch := awaitChange(t, w, 2*time.Second)
	if ch.Kind != ChangeModified {
		t.Errorf("kind = %s, want %s", ch.Kind, ChangeModified)
	}
}

func TestWatcherCloseEndsStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(WatcherConfig{Path: path})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case _, ok := <-w.Changes():
		if ok {
			t.Error("received a change after Close")
		}
	case <-time.After(time.Second):
		t.Error("change channel not closed after Close")
	}
}
