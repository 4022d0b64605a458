package platform

import (
	"log/slog"
	"time"

	"github.com/namuan/whiteboard/pkg/core"
	"github.com/namuan/whiteboard/pkg/session"
)

// Options is the resolved configuration the root package assembles an
// application from.
type Options struct {
	Logger *slog.Logger

	// Config holds the app configuration. ConfigPath, when set, is loaded
	// over it by ApplyOptions.
	Config     Config
	ConfigPath string

	// StatePath overrides the state file location. Empty selects the
	// platform default.
	StatePath string

	// AutosaveInterval overrides the configured interval when nonzero.
	// Negative disables autosave.
	AutosaveInterval time.Duration

	// Styles overrides the style library built from Config.
	Styles *core.StyleLibrary

	// Now and NewID are injectable for tests.
	Now   func() time.Time
	NewID func() core.EntityID

	// OnSaved is invoked after every save attempt.
	OnSaved func(session.SaveResult)

	// Watch enables the external-change watcher on opened documents.
	Watch bool
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		Config: DefaultConfig(),
		Watch:  true,
	}
}

// ApplyOptions resolves the option list. When a config file is requested it
// becomes the base configuration; the explicit options are applied again on
// top so they win over file values.
func ApplyOptions(opts ...Option) (*Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.ConfigPath != "" {
		cfg, err := LoadConfig(o.ConfigPath, o.Logger)
		if err != nil {
			return nil, err
		}
		base := DefaultOptions()
		base.Config = cfg
		for _, opt := range opts {
			opt(base)
		}
		base.ConfigPath = o.ConfigPath
		o = base
	}
	if o.AutosaveInterval == 0 {
		o.AutosaveInterval = o.Config.AutosaveInterval()
	}
	if o.Styles == nil {
		o.Styles = o.Config.Styles()
	}
	return o, nil
}

// WithLogger sets the logger for the application and everything it wires.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithConfig sets the app configuration directly.
func WithConfig(cfg Config) Option {
	return func(o *Options) {
		o.Config = cfg
		o.ConfigPath = ""
	}
}

// WithConfigFile loads the app configuration from a YAML file.
func WithConfigFile(path string) Option {
	return func(o *Options) { o.ConfigPath = path }
}

// WithStatePath overrides the app state file location.
func WithStatePath(path string) Option {
	return func(o *Options) { o.StatePath = path }
}

// WithAutosaveInterval overrides the autosave quiet period. Negative
// disables autosave.
func WithAutosaveInterval(d time.Duration) Option {
	return func(o *Options) { o.AutosaveInterval = d }
}

// WithGroupMinSize overrides the smallest selection that may form a group.
func WithGroupMinSize(n int) Option {
	return func(o *Options) { o.Config.GroupMinSize = n }
}

// WithStyles replaces the style library.
func WithStyles(lib *core.StyleLibrary) Option {
	return func(o *Options) { o.Styles = lib }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

// WithIDSource injects the entity id generator.
func WithIDSource(fn func() core.EntityID) Option {
	return func(o *Options) { o.NewID = fn }
}

// WithOnSaved registers a callback invoked after every save attempt.
func WithOnSaved(fn func(session.SaveResult)) Option {
	return func(o *Options) { o.OnSaved = fn }
}

// WithWatcher enables or disables the external-change watcher.
func WithWatcher(enabled bool) Option {
	return func(o *Options) { o.Watch = enabled }
}
