package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/namuan/whiteboard/pkg/core"
)

// DefaultAutosaveInterval is the quiet period before a pending auto-save
// fires.
const DefaultAutosaveInterval = 30 * time.Second

// defaultFileMode is applied to session files written by the manager.
const defaultFileMode os.FileMode = 0644

// SaveResult reports the outcome of a completed save, including saves that
// finish after the manager was closed.
type SaveResult struct {
	Path  string
	Bytes int
	Err   error
	At    time.Time
}

// ManagerConfig holds the configuration for a session manager.
type ManagerConfig struct {
	// Path is the session file the manager writes to.
	Path string

	// Snapshot returns a point-in-time copy of the scene. The callback
	// must do its own synchronization against live edits.
	Snapshot func() *core.Snapshot

	Codec *Codec

	// CreatedAt is the document creation timestamp, carried over from a
	// loaded file. Zero means a fresh document; the first save stamps it.
	CreatedAt time.Time

	// AutosaveInterval is the quiet period for debounced auto-save.
	// Zero selects DefaultAutosaveInterval; a negative value disables
	// auto-save entirely.
	AutosaveInterval time.Duration

	// OnSaved, when set, is called after every save attempt with its
	// outcome. Called from the saving goroutine.
	OnSaved func(SaveResult)

	Logger *slog.Logger
	Now    func() time.Time
}

// Manager owns the save lifecycle of one open session file: explicit saves,
// snapshot-based async saves, and debounced auto-save. Saves in flight when
// the manager closes still complete against their snapshot and report
// through OnSaved.
type Manager struct {
	config   ManagerConfig
	debounce *debouncer
	now      func() time.Time

	mu        sync.Mutex
	createdAt time.Time
	gen       uint64 // bumped on every MarkDirty
	savedGen  uint64 // gen captured by the last successful save
	dirty     bool
	lastWrite time.Time // mtime of the file after our last write
	closed    bool

	saving sync.WaitGroup
}

// NewManager creates a manager for the session file at config.Path.
func NewManager(config ManagerConfig) *Manager {
	interval := config.AutosaveInterval
	if interval == 0 {
		interval = DefaultAutosaveInterval
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}
	m := &Manager{
		config:    config,
		now:       now,
		createdAt: config.CreatedAt,
	}
	if interval > 0 {
		m.debounce = newDebouncer(interval)
	}
	return m
}

// Path returns the session file path.
func (m *Manager) Path() string { return m.config.Path }

// Dirty reports whether the scene has changed since the last successful
// save.
func (m *Manager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// LastWriteTime returns the file modification time recorded after the
// manager's own most recent write. The watcher uses it to tell external
// edits apart from our own saves.
func (m *Manager) LastWriteTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastWrite
}

// CreatedAt returns the document creation timestamp: the one the manager
// was configured with, or the one stamped by the first save of a fresh
// document. Zero until either happens.
func (m *Manager) CreatedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createdAt
}

// MarkDirty records a scene modification and arms the auto-save timer. A
// new call supersedes a pending timer, so rapid edits collapse into one
// save after the quiet period.
func (m *Manager) MarkDirty() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.dirty = true
	m.mu.Unlock()

	if m.debounce != nil {
		m.debounce.trigger(m.autosave)
	}
}

// autosave runs on the debounce timer. It skips entirely when nothing
// changed since the last save.
func (m *Manager) autosave() {
	m.mu.Lock()
	if m.closed || !m.dirty {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	if m.config.Logger != nil {
		m.config.Logger.Debug("auto-save firing", "path", m.config.Path)
	}
	m.report(m.save())
}

// SaveNow performs a synchronous save of the current scene state and
// cancels any pending auto-save. Skips nothing: an explicit save always
// writes, so the file timestamp reflects the user action.
func (m *Manager) SaveNow() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.mu.Unlock()

	if m.debounce != nil {
		m.debounce.cancel()
	}
	res := m.save()
	m.report(res)
	return res.Err
}

// SaveAsync captures a snapshot on the calling goroutine and completes the
// save in the background. The outcome arrives via OnSaved; the save is
// never silently dropped, even if the manager closes while it runs.
func (m *Manager) SaveAsync() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.saving.Add(1)
	m.mu.Unlock()

	if m.debounce != nil {
		m.debounce.cancel()
	}
	gen, snap := m.capture()

	go func() {
		defer m.saving.Done()
		m.report(m.write(gen, snap))
	}()
	return nil
}

// save captures and writes synchronously.
func (m *Manager) save() SaveResult {
	gen, snap := m.capture()
	m.saving.Add(1)
	defer m.saving.Done()
	return m.write(gen, snap)
}

// capture records the current generation, then takes the snapshot. Edits
// landing between the two leave the document dirty, which at worst costs an
// extra save, never a lost one.
func (m *Manager) capture() (uint64, *core.Snapshot) {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()
	return gen, m.config.Snapshot()
}

// write encodes the snapshot and writes it atomically, then settles the
// dirty flag for the captured generation.
func (m *Manager) write(gen uint64, snap *core.Snapshot) SaveResult {
	now := m.now()

	m.mu.Lock()
	if m.createdAt.IsZero() {
		m.createdAt = now
	}
	createdAt := m.createdAt
	m.mu.Unlock()

	res := SaveResult{Path: m.config.Path, At: now}

	data, err := m.config.Codec.Encode(snap, createdAt, now)
	if err != nil {
		res.Err = err
		return res
	}
	if err := WriteFileAtomic(m.config.Path, data, defaultFileMode); err != nil {
		res.Err = fmt.Errorf("save session: %w", err)
		return res
	}
	res.Bytes = len(data)

	var mtime time.Time
	if info, err := os.Stat(m.config.Path); err == nil {
		mtime = info.ModTime()
	}

	m.mu.Lock()
	m.lastWrite = mtime
	if gen >= m.savedGen {
		m.savedGen = gen
		if m.gen == gen {
			m.dirty = false
		}
	}
	m.mu.Unlock()

	if m.config.Logger != nil {
		m.config.Logger.Debug("session saved", "path", res.Path, "bytes", res.Bytes)
	}
	return res
}

func (m *Manager) report(res SaveResult) {
	if res.Err != nil && m.config.Logger != nil {
		m.config.Logger.Error("save failed", "path", res.Path, "error", res.Err)
	}
	if m.config.OnSaved != nil {
		m.config.OnSaved(res)
	}
}

// Close stops the auto-save timer, flushes unsaved changes with one final
// synchronous save, and waits for in-flight background saves to finish.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	dirty := m.dirty
	m.mu.Unlock()

	if m.debounce != nil {
		m.debounce.stopAndWait(5 * time.Second)
	}

	var err error
	if dirty {
		res := m.save()
		m.report(res)
		err = res.Err
	}

	done := make(chan struct{})
	go func() {
		m.saving.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// Discard stops the auto-save timer and waits for in-flight saves, but
// skips the final flush. Unsaved changes are dropped; the file keeps
// whatever the last completed save wrote. Used when the caller is about
// to re-read the file or rebind to a different path.
func (m *Manager) Discard(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if m.debounce != nil {
		m.debounce.stopAndWait(5 * time.Second)
	}

	done := make(chan struct{})
	go func() {
		m.saving.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
