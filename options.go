package whiteboard

import (
	"log/slog"
	"time"

	"github.com/namuan/whiteboard/internal/platform"
	"github.com/namuan/whiteboard/pkg/core"
	"github.com/namuan/whiteboard/pkg/export"
	"github.com/namuan/whiteboard/pkg/session"
)

// Config is a public alias for the application configuration.
type Config = platform.Config

// ExportOptions is a public alias for the PNG export options.
type ExportOptions = export.Options

// State is a public alias for the persisted application state.
type State = platform.State

// StateStore is a public alias for the application state store.
type StateStore = platform.StateStore

// DefaultConfig returns the built-in application configuration.
func DefaultConfig() Config {
	return platform.DefaultConfig()
}

// Option defines a functional option for configuring the application.
type Option = platform.Option

// WithLogger sets the logger for the application and everything it wires.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithConfig sets the application configuration directly.
func WithConfig(cfg Config) Option {
	return platform.WithConfig(cfg)
}

// WithConfigFile loads the application configuration from a YAML file.
func WithConfigFile(path string) Option {
	return platform.WithConfigFile(path)
}

// WithStatePath overrides the location of the persisted application state
// file. The default is the platform config directory.
func WithStatePath(path string) Option {
	return platform.WithStatePath(path)
}

// WithAutosaveInterval overrides the auto-save quiet period. Negative
// disables auto-save.
func WithAutosaveInterval(d time.Duration) Option {
	return platform.WithAutosaveInterval(d)
}

// WithGroupMinSize overrides the smallest selection that may form a group.
func WithGroupMinSize(n int) Option {
	return platform.WithGroupMinSize(n)
}

// WithStyles replaces the style library used for new entities.
func WithStyles(lib *core.StyleLibrary) Option {
	return platform.WithStyles(lib)
}

// WithClock injects the time source (useful for testing).
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithIDSource injects the entity id generator (useful for testing).
func WithIDSource(fn func() core.EntityID) Option {
	return platform.WithIDSource(fn)
}

// WithOnSaved registers a callback invoked after every save attempt,
// including auto-saves and saves completing after Close.
func WithOnSaved(fn func(session.SaveResult)) Option {
	return platform.WithOnSaved(fn)
}

// WithWatcher enables or disables the external-change watcher on opened
// documents. Enabled by default.
func WithWatcher(enabled bool) Option {
	return platform.WithWatcher(enabled)
}
