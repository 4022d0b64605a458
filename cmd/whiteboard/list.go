package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/namuan/whiteboard/pkg/session"
)

var (
	listJSON    bool
	listPattern string
)

// listEntry is the JSON shape of one discovered session.
type listEntry struct {
	Path        string    `json:"path"`
	Version     string    `json:"version,omitempty"`
	Notes       int       `json:"notes"`
	Images      int       `json:"images"`
	Connections int       `json:"connections"`
	Groups      int       `json:"groups"`
	ModifiedAt  time.Time `json:"modified_at,omitempty"`
	FileSize    int64     `json:"file_size"`
	Error       string    `json:"error,omitempty"`
}

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List session files under a directory",
	Long: `List session files under a directory, newest first. Broken files are
listed with their error instead of being skipped.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		infos, err := session.Discover(root, listPattern, slog.Default())
		if err != nil {
			fatal("Failed to discover sessions", err)
		}

		entries := make([]listEntry, 0, len(infos))
		for _, info := range infos {
			entry := listEntry{
				Path:        info.Path,
				Version:     info.Version,
				Notes:       info.Notes,
				Images:      info.Images,
				Connections: info.Connections,
				Groups:      info.Groups,
				ModifiedAt:  info.ModifiedAt,
				FileSize:    info.FileSize,
			}
			if info.Err != nil {
				entry.Error = info.Err.Error()
			}
			entries = append(entries, entry)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(entries); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		if len(entries) == 0 {
			fmt.Println("No session files found.")
			return
		}
		for _, entry := range entries {
			if entry.Error != "" {
				fmt.Printf("%s  unreadable: %s\n", entry.Path, entry.Error)
				continue
			}
			fmt.Printf("%s  v%s  %d notes, %d images, %d connections, %d groups\n",
				entry.Path, entry.Version, entry.Notes, entry.Images,
				entry.Connections, entry.Groups)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listPattern, "pattern", "", "Glob pattern for session files (default \"**/*.json\")")
}
