package whiteboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/namuan/whiteboard/internal/platform"
	"github.com/namuan/whiteboard/pkg/core"
	"github.com/namuan/whiteboard/pkg/export"
	"github.com/namuan/whiteboard/pkg/history"
	"github.com/namuan/whiteboard/pkg/session"
)

var (
	// ErrNoPath is returned by file operations on a document that has not
	// been bound to a file yet. SaveAs binds one.
	ErrNoPath = errors.New("whiteboard: document has no file path")

	// ErrClosed is returned by operations on a closed application.
	ErrClosed = errors.New("whiteboard: application closed")
)

// App is one open whiteboard document together with its undo history, save
// lifecycle, and external-change watch. It is safe for concurrent use; the
// scene it owns is only ever touched under the application lock, which is
// what allows auto-save to snapshot while edits happen on other goroutines.
type App struct {
	logger   *slog.Logger
	options  *platform.Options
	codec    *session.Codec
	exporter *export.Exporter
	state    *platform.StateStore

	mu      sync.Mutex
	scene   *core.Scene
	stack   *history.Stack
	manager *session.Manager
	watcher *session.Watcher
	path    string
	closed  bool
}

// New creates an application holding a fresh, empty document. The document
// is not bound to a file; Save returns ErrNoPath until SaveAs binds one.
func New(opts ...Option) (*App, error) {
	o, err := platform.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	a := newApp(o)
	a.scene = core.NewScene(a.sceneConfig())
	a.watchScene()
	a.stack = history.NewStack(history.StackConfig{Scene: a.scene, Logger: o.Logger})
	return a, nil
}

// Open loads the session file at path and binds the application to it:
// edits auto-save back to the file and, unless disabled, external changes
// to it arrive on Changes.
func Open(ctx context.Context, path string, opts ...Option) (*App, error) {
	o, err := platform.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	a := newApp(o)
	scene, doc, err := session.LoadFile(ctx, a.codec, path)
	if err != nil {
		return nil, err
	}
	a.scene = scene
	a.watchScene()
	a.stack = history.NewStack(history.StackConfig{Scene: a.scene, Logger: o.Logger})
	a.bind(path, doc.CreatedAt)
	a.recordLastDocument(path)
	return a, nil
}

func newApp(o *platform.Options) *App {
	a := &App{
		logger:   o.Logger,
		options:  o,
		exporter: export.NewExporter(export.ExporterConfig{Logger: o.Logger}),
		state:    platform.NewStateStore(platform.StateStoreConfig{Path: o.StatePath, Logger: o.Logger}),
	}
	a.codec = session.NewCodec(a.sceneConfig())
	return a
}

func (a *App) sceneConfig() core.SceneConfig {
	return core.SceneConfig{
		Logger:       a.options.Logger,
		Styles:       a.options.Styles,
		GroupMinSize: a.options.Config.GroupMinSize,
		Now:          a.options.Now,
		NewID:        a.options.NewID,
	}
}

// watchScene subscribes the dirty-tracking observer. View changes are
// excluded: zoom and pan travel with the file but do not by themselves
// modify the document.
func (a *App) watchScene() {
	a.scene.Subscribe(func(ev core.Event) {
		if ev.Type == core.EventViewChanged {
			return
		}
		if a.manager != nil {
			a.manager.MarkDirty()
		}
	})
}

// bind attaches the save manager and, when enabled, the file watcher for
// path. Callers hold a.mu or have exclusive access during construction.
func (a *App) bind(path string, createdAt time.Time) {
	a.path = path
	a.manager = session.NewManager(session.ManagerConfig{
		Path:             path,
		Snapshot:         a.lockedSnapshot,
		Codec:            a.codec,
		CreatedAt:        createdAt,
		AutosaveInterval: a.options.AutosaveInterval,
		OnSaved:          a.options.OnSaved,
		Logger:           a.logger,
		Now:              a.options.Now,
	})
	if !a.options.Watch {
		return
	}
	w, err := session.NewWatcher(session.WatcherConfig{
		Path:         path,
		LastOwnWrite: a.manager.LastWriteTime,
		Logger:       a.logger,
	})
	if err == nil {
		if err = w.Start(context.Background()); err != nil {
			_ = w.Close()
		}
	}
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("file watch unavailable", "path", path, "error", err)
		}
		return
	}
	a.watcher = w
}

// lockedSnapshot is the snapshot callback handed to the save manager. It
// takes the application lock, so auto-save never observes a half-applied
// edit.
func (a *App) lockedSnapshot() *core.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scene.Snapshot()
}

func (a *App) recordLastDocument(path string) {
	if err := a.state.SetLastDocumentPath(path); err != nil && a.logger != nil {
		a.logger.Warn("app state not saved", "error", err)
	}
}

// Path returns the bound session file path, or "" for an unbound document.
func (a *App) Path() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.path
}

// Dirty reports whether the document changed since its last save. An
// unbound document is never dirty; it has no save baseline.
func (a *App) Dirty() bool {
	a.mu.Lock()
	m := a.manager
	a.mu.Unlock()
	if m == nil {
		return false
	}
	return m.Dirty()
}

// State exposes the persisted application state (last document, window
// placement).
func (a *App) State() *platform.StateStore { return a.state }

// View runs fn with the scene under the application lock. Use it for
// queries: hit testing, viewport math, minimap models. fn must not retain
// the scene past its return.
func (a *App) View(fn func(s *core.Scene)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.scene)
}

// Edit runs fn with the scene under the application lock. Edits made this
// way are saved but bypass the undo history; use Do for undoable edits.
func (a *App) Edit(fn func(s *core.Scene) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	return fn(a.scene)
}

// Do applies cmd and records it on the undo history.
func (a *App) Do(cmd history.Command) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	return a.stack.Do(cmd)
}

// Undo reverts the most recent command. No-op on an empty history.
func (a *App) Undo() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	return a.stack.Undo()
}

// Redo re-applies the most recently undone command. No-op when there is
// nothing to redo.
func (a *App) Redo() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	return a.stack.Redo()
}

// CanUndo reports whether Undo would do anything.
func (a *App) CanUndo() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stack.CanUndo()
}

// CanRedo reports whether Redo would do anything.
func (a *App) CanRedo() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stack.CanRedo()
}

// UndoDescription names the command Undo would revert, "" when none.
func (a *App) UndoDescription() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stack.UndoDescription()
}

// RedoDescription names the command Redo would re-apply, "" when none.
func (a *App) RedoDescription() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stack.RedoDescription()
}

// Snapshot returns a point-in-time copy of the document, safe to use on
// any goroutine.
func (a *App) Snapshot() *core.Snapshot {
	return a.lockedSnapshot()
}

// Save writes the document to its bound file synchronously and cancels any
// pending auto-save.
func (a *App) Save() error {
	a.mu.Lock()
	m := a.manager
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if m == nil {
		return ErrNoPath
	}
	return m.SaveNow()
}

// SaveAs binds the document to path and saves it there. The previous file,
// if any, keeps its last saved contents; subsequent saves and the
// external-change watch follow the new path.
func (a *App) SaveAs(ctx context.Context, path string) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	old := a.manager
	oldWatcher := a.watcher
	a.watcher = nil
	var createdAt time.Time
	if old != nil {
		createdAt = old.CreatedAt()
	}
	a.mu.Unlock()

	if oldWatcher != nil {
		_ = oldWatcher.Close()
	}
	if old != nil {
		if err := old.Discard(ctx); err != nil {
			return err
		}
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.bind(path, createdAt)
	m := a.manager
	a.mu.Unlock()

	if err := m.SaveNow(); err != nil {
		return err
	}
	a.recordLastDocument(path)
	return nil
}

// Reload discards unsaved local changes and the undo history, and re-reads
// the document from its bound file. Use it to adopt an external change
// reported on Changes.
func (a *App) Reload(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	path := a.path
	a.mu.Unlock()
	if path == "" {
		return ErrNoPath
	}

	scene, doc, err := session.LoadFile(ctx, a.codec, path)
	if err != nil {
		return err
	}

	a.mu.Lock()
	old := a.manager
	oldWatcher := a.watcher
	a.manager = nil
	a.watcher = nil
	a.mu.Unlock()

	if oldWatcher != nil {
		_ = oldWatcher.Close()
	}
	if old != nil {
		if err := old.Discard(ctx); err != nil {
			return err
		}
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.scene = scene
	a.watchScene()
	a.stack = history.NewStack(history.StackConfig{Scene: a.scene, Logger: a.logger})
	a.bind(path, doc.CreatedAt)
	a.mu.Unlock()

	if a.logger != nil {
		a.logger.Info("document reloaded", "path", path)
	}
	return nil
}

// Changes returns the channel external file changes arrive on. It is nil
// when no watcher is running (unbound document, watching disabled, or
// watch setup failed); receiving from it then blocks forever, which makes
// it safe to select on unconditionally.
func (a *App) Changes() <-chan session.Change {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher == nil {
		return nil
	}
	return a.watcher.Changes()
}

// ExportPNG renders the current document to a PNG file.
func (a *App) ExportPNG(path string, opts export.Options) error {
	return a.exporter.WriteFile(path, a.Snapshot(), opts)
}

// RenderPNG renders the current document as PNG to w.
func (a *App) RenderPNG(w io.Writer, opts export.Options) error {
	return a.exporter.EncodePNG(w, a.Snapshot(), opts)
}

// Close stops the watcher, flushes unsaved changes with one final save,
// and waits for in-flight background saves. Safe to call twice.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	m := a.manager
	w := a.watcher
	a.mu.Unlock()

	if w != nil {
		_ = w.Close()
	}
	if m != nil {
		return m.Close(ctx)
	}
	return nil
}
