package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the event bursts editors and atomic writers
// produce for a single logical change.
const watchDebounce = 100 * time.Millisecond

// ChangeKind classifies an external change to the watched session file.
type ChangeKind string

const (
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Change is one external modification of the watched session file.
type Change struct {
	Path string
	Kind ChangeKind
	At   time.Time
}

// WatcherConfig holds the configuration for a session file watcher.
type WatcherConfig struct {
	// Path is the session file to watch. The watch is installed on its
	// directory so atomic rename-in writes are seen.
	Path string

	// LastOwnWrite, when set, returns the modification time of the
	// manager's most recent own write. File events whose mtime does not
	// advance past it are our own saves and are suppressed.
	LastOwnWrite func() time.Time

	Logger *slog.Logger
}

// Watcher reports external changes to one open session file, ignoring the
// manager's own atomic writes.
type Watcher struct {
	config    WatcherConfig
	path      string // cleaned absolute-ish form of config.Path
	fsw       *fsnotify.Watcher
	debouncer *debouncer
	changes   chan Change
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewWatcher creates a watcher for the session file at config.Path. Call
// Start to begin receiving changes.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("watcher: path is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	path := filepath.Clean(config.Path)
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	return &Watcher{
		config:    config,
		path:      path,
		fsw:       fsw,
		debouncer: newDebouncer(watchDebounce),
		changes:   make(chan Change, 8),
		done:      make(chan struct{}),
	}, nil
}

// Changes returns the channel external changes arrive on. It is closed when
// the watcher stops.
func (w *Watcher) Changes() <-chan Change { return w.changes }

// Start launches the event loop. The loop runs until ctx is cancelled or
// Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if w.cancel != nil {
		return fmt.Errorf("watcher already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.run(runCtx)
	return nil
}

// Close stops the event loop and releases the filesystem watch.
func (w *Watcher) Close() error {
	if w.cancel == nil {
		return w.fsw.Close()
	}
	w.cancel()
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.changes)
	// Stop accepting new events, then wait for in-flight timers so nothing
	// sends on the channel after it closes.
	defer w.debouncer.stopAndWait(5 * time.Second)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.config.Logger != nil {
				w.config.Logger.Error("fsnotify error", "error", err)
			}
		}
	}
}

// handleEvent filters directory events down to the watched file and
// schedules a debounced change notification.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	name := filepath.Clean(event.Name)
	if strings.HasPrefix(filepath.Base(name), TempFilePrefix) {
		return
	}
	if name != w.path {
		return
	}
	if w.config.Logger != nil {
		w.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())
	}

	var kind ChangeKind
	switch {
	case event.Has(fsnotify.Remove):
		kind = ChangeRemoved
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
		kind = ChangeModified
	default:
		return
	}

	w.debouncer.trigger(func() {
		w.emit(ctx, kind)
	})
}

// emit re-checks the file after the debounce window and delivers the
// change, dropping events caused by the manager's own writes.
func (w *Watcher) emit(ctx context.Context, kind ChangeKind) {
	info, err := os.Stat(w.path)
	switch {
	case err == nil:
		if w.config.LastOwnWrite != nil {
			if own := w.config.LastOwnWrite(); !own.IsZero() && !info.ModTime().After(own) {
				if w.config.Logger != nil {
					w.config.Logger.Debug("ignoring own write", "path", w.path)
				}
				return
			}
		}
		kind = ChangeModified
	case os.IsNotExist(err):
		kind = ChangeRemoved
	default:
		if w.config.Logger != nil {
			w.config.Logger.Debug("stat failed", "path", w.path, "error", err)
		}
	}

	select {
	case w.changes <- Change{Path: w.path, Kind: kind, At: time.Now()}:
	case <-ctx.Done():
	}
}
