package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/namuan/whiteboard/internal/catalog"
)

var (
	recentJSON  bool
	recentLimit int
	recentClear bool
)

// recentEntry is the JSON shape of one recent-catalog row.
type recentEntry struct {
	Path        string    `json:"path"`
	OpenedAt    time.Time `json:"opened_at"`
	Notes       int       `json:"notes"`
	Images      int       `json:"images"`
	Connections int       `json:"connections"`
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show recently opened session files",
	Long:  `Show the sessions this tool touched most recently, newest first.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := catalog.Open(catalog.Config{Path: recentCatalogPath(), Logger: slog.Default()})
		if err != nil {
			fatal("Failed to open recent catalog", err)
		}
		defer cat.Close()

		if recentClear {
			if err := cat.Clear(); err != nil {
				fatal("Failed to clear recent catalog", err)
			}
			fmt.Println("Cleared recent sessions.")
			return
		}

		entries, err := cat.Recent(recentLimit)
		if err != nil {
			fatal("Failed to read recent catalog", err)
		}

		if recentJSON {
			out := make([]recentEntry, 0, len(entries))
			for _, e := range entries {
				out = append(out, recentEntry{
					Path:        e.Path,
					OpenedAt:    e.OpenedAt,
					Notes:       e.Notes,
					Images:      e.Images,
					Connections: e.Connections,
				})
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(out); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		if len(entries) == 0 {
			fmt.Println("No recent sessions.")
			return
		}
		for _, e := range entries {
			fmt.Printf("%s  %d notes, %d images, %d connections  opened %s\n",
				e.Path, e.Notes, e.Images, e.Connections,
				e.OpenedAt.Local().Format("2006-01-02 15:04"))
		}
	},
}

func init() {
	rootCmd.AddCommand(recentCmd)
	recentCmd.Flags().BoolVar(&recentJSON, "json", false, "Output in JSON format")
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 0, "Maximum entries to show (0 = catalog capacity)")
	recentCmd.Flags().BoolVar(&recentClear, "clear", false, "Forget all recent sessions")
}
