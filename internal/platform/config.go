package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/namuan/whiteboard/pkg/core"
)

// Config is the user-editable application configuration, stored as YAML in
// the config directory. Zero values select the built-in defaults.
type Config struct {
	// AutosaveSeconds is the quiet period before a dirty document is written
	// to disk. Negative disables autosave.
	AutosaveSeconds int `yaml:"autosave_seconds"`

	// GroupMinSize is the smallest selection that may form a group.
	GroupMinSize int `yaml:"group_min_size"`

	// MinimapThreshold is the entity count above which the minimap switches
	// to simplified primitives.
	MinimapThreshold int `yaml:"minimap_threshold"`

	// NoteStyle overrides keys of the built-in default note style.
	NoteStyle map[string]any `yaml:"note_style,omitempty"`

	// Templates are user style templates added to the built-in set.
	Templates map[string]map[string]any `yaml:"templates,omitempty"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		AutosaveSeconds:  30,
		GroupMinSize:     core.DefaultGroupMinSize,
		MinimapThreshold: core.DefaultMinimapThreshold,
	}
}

// AutosaveInterval converts the configured seconds to a duration. Zero maps
// to the default and negative values disable autosave.
func (c Config) AutosaveInterval() time.Duration {
	switch {
	case c.AutosaveSeconds < 0:
		return -1
	case c.AutosaveSeconds == 0:
		return time.Duration(DefaultConfig().AutosaveSeconds) * time.Second
	default:
		return time.Duration(c.AutosaveSeconds) * time.Second
	}
}

// Styles builds a style library with the configured note style overrides and
// user templates applied.
func (c Config) Styles() *core.StyleLibrary {
	lib := core.NewStyleLibrary()
	if len(c.NoteStyle) > 0 {
		style := core.DefaultNoteStyle()
		for k, v := range c.NoteStyle {
			style[k] = v
		}
		lib.SetDefaultStyle(style)
	}
	for name, tpl := range c.Templates {
		style := make(core.Style, len(tpl))
		for k, v := range tpl {
			style[k] = v
		}
		// Built-in names are protected; skip collisions silently.
		_ = lib.AddTemplate(name, style)
	}
	return lib
}

// LoadConfig reads a YAML config file. A missing file yields the defaults
// without error; a malformed one yields the defaults and the parse error.
func LoadConfig(path string, logger *slog.Logger) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if logger != nil {
		logger.Debug("config loaded", "path", path)
	}
	return cfg, nil
}

// SaveConfig writes the configuration as YAML, creating the parent directory
// if needed.
func SaveConfig(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
