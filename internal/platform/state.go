package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// StateVersion is the schema version written into the state file.
const StateVersion = "1.0"

// State is the application state persisted between runs.
type State struct {
	Version          string `json:"version"`
	LastDocumentPath string `json:"last_document_path,omitempty"`
	WindowGeometry   []int  `json:"window_geometry,omitempty"`
	WindowState      []byte `json:"window_state,omitempty"`
}

// StateStoreConfig configures a StateStore.
type StateStoreConfig struct {
	// Path of the state file. Empty selects StateFilePath().
	Path   string
	Logger *slog.Logger
}

// StateStore persists the application state as JSON. Mutators save
// immediately. Safe for concurrent use.
type StateStore struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// NewStateStore creates a store and loads any existing state file. A missing
// or unreadable file yields the defaults.
func NewStateStore(config StateStoreConfig) *StateStore {
	path := config.Path
	if path == "" {
		path = StateFilePath()
	}
	st := &StateStore{
		path:   path,
		logger: config.Logger,
		state:  State{Version: StateVersion},
	}
	st.load()
	return st
}

func (st *StateStore) load() {
	data, err := os.ReadFile(st.path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		if st.logger != nil {
			st.logger.Warn("state file unreadable, using defaults", "path", st.path, "error", err)
		}
		return
	}
	loaded := State{Version: StateVersion}
	if err := json.Unmarshal(data, &loaded); err != nil {
		if st.logger != nil {
			st.logger.Warn("state file malformed, using defaults", "path", st.path, "error", err)
		}
		return
	}
	st.state = loaded
	if st.logger != nil {
		st.logger.Debug("state loaded", "path", st.path)
	}
}

// State returns a copy of the current state.
func (st *StateStore) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.state
	s.WindowGeometry = append([]int(nil), st.state.WindowGeometry...)
	s.WindowState = append([]byte(nil), st.state.WindowState...)
	return s
}

// LastDocumentPath returns the most recently opened document, or "".
func (st *StateStore) LastDocumentPath() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.LastDocumentPath
}

// SetLastDocumentPath records the most recently opened document and saves
// when it changed.
func (st *StateStore) SetLastDocumentPath(path string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.state.LastDocumentPath == path {
		return nil
	}
	st.state.LastDocumentPath = path
	return st.save()
}

// ClearLastDocument forgets the most recently opened document.
func (st *StateStore) ClearLastDocument() error {
	return st.SetLastDocumentPath("")
}

// SetWindowGeometry records the window rectangle as [x, y, width, height].
func (st *StateStore) SetWindowGeometry(geometry []int) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state.WindowGeometry = append([]int(nil), geometry...)
	return st.save()
}

// SetWindowState records an opaque serialized window state blob.
func (st *StateStore) SetWindowState(blob []byte) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state.WindowState = append([]byte(nil), blob...)
	return st.save()
}

// Reset restores the defaults and saves.
func (st *StateStore) Reset() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state = State{Version: StateVersion}
	return st.save()
}

// save writes the state file. Callers hold st.mu.
func (st *StateStore) save() error {
	data, err := json.MarshalIndent(st.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(st.path, data, 0o644); err != nil {
		return fmt.Errorf("write state %s: %w", st.path, err)
	}
	if st.logger != nil {
		st.logger.Debug("state saved", "path", st.path)
	}
	return nil
}
