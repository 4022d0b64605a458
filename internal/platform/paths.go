// Package platform resolves OS-specific application directories and holds
// the app-level configuration, persisted state, and the option surface the
// root package builds on.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppDirName is the directory created under the OS config and data roots.
const AppDirName = "DigitalWhiteboard"

const (
	stateFileName  = "app_state.json"
	configFileName = "config.yaml"
)

// ConfigDir returns the per-user configuration directory:
//
//	Windows: %APPDATA%\DigitalWhiteboard
//	macOS:   ~/Library/Application Support/DigitalWhiteboard
//	Linux:   $XDG_CONFIG_HOME/DigitalWhiteboard or ~/.config/DigitalWhiteboard
func ConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if base := os.Getenv("APPDATA"); base != "" {
			return filepath.Join(base, AppDirName)
		}
		return filepath.Join(homeDir(), "AppData", "Roaming", AppDirName)
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", AppDirName)
	default:
		if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
			return filepath.Join(base, AppDirName)
		}
		return filepath.Join(homeDir(), ".config", AppDirName)
	}
}

// DataDir returns the per-user data directory:
//
//	Windows: %LOCALAPPDATA%\DigitalWhiteboard
//	macOS:   ~/Library/Application Support/DigitalWhiteboard
//	Linux:   $XDG_DATA_HOME/DigitalWhiteboard or ~/.local/share/DigitalWhiteboard
func DataDir() string {
	switch runtime.GOOS {
	case "windows":
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, AppDirName)
		}
		return filepath.Join(homeDir(), "AppData", "Local", AppDirName)
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", AppDirName)
	default:
		if base := os.Getenv("XDG_DATA_HOME"); base != "" {
			return filepath.Join(base, AppDirName)
		}
		return filepath.Join(homeDir(), ".local", "share", AppDirName)
	}
}

// StateFilePath returns the location of the persisted application state.
func StateFilePath() string {
	return filepath.Join(ConfigDir(), stateFileName)
}

// ConfigFilePath returns the location of the user configuration file.
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), configFileName)
}

// EnsureAppDirs creates the config and data directories if missing.
func EnsureAppDirs() error {
	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(DataDir(), 0o755)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
