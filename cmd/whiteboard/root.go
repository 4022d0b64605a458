package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/namuan/whiteboard"
	"github.com/namuan/whiteboard/internal/catalog"
	"github.com/namuan/whiteboard/internal/platform"
	"github.com/namuan/whiteboard/pkg/core"
)

var (
	verbose    bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "whiteboard",
	Short: "Inspect, convert, and export whiteboard session files",
	Long: `Whiteboard sessions are versioned JSON documents holding notes, images,
connections, and groups on an infinite canvas. This tool creates, inspects,
validates, migrates, and renders them without a GUI.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "App configuration file (YAML)")
}

// appOptions builds the option set one-shot commands share: no auto-save
// timer, no file watcher, logging through the process default.
func appOptions() []whiteboard.Option {
	opts := []whiteboard.Option{
		whiteboard.WithLogger(slog.Default()),
		whiteboard.WithAutosaveInterval(-1),
		whiteboard.WithWatcher(false),
	}
	if configPath != "" {
		opts = append(opts, whiteboard.WithConfigFile(configPath))
	}
	return opts
}

// recentCatalogPath returns the recent-files database location.
func recentCatalogPath() string {
	return filepath.Join(platform.DataDir(), catalog.DBFileName)
}

// recordRecent notes that a session file was touched. Best effort: the
// catalog never blocks a command.
func recordRecent(path string, snap *core.Snapshot) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cat, err := catalog.Open(catalog.Config{Path: recentCatalogPath(), Logger: slog.Default()})
	if err != nil {
		slog.Debug("recent catalog unavailable", "error", err)
		return
	}
	defer cat.Close()

	entry := catalog.Entry{
		Path:        abs,
		Notes:       len(snap.Notes),
		Images:      len(snap.Images),
		Connections: len(snap.Connections),
	}
	if err := cat.Touch(entry); err != nil {
		slog.Debug("recent catalog update failed", "error", err)
	}
}
