package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/namuan/whiteboard"
	"github.com/namuan/whiteboard/pkg/session"
)

var (
	newForce bool
)

// newCmd represents the new command
var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create an empty session file",
	Long:  `Create an empty session file at the given path, written in the current format version.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		if _, err := os.Stat(path); err == nil && !newForce {
			fmt.Fprintf(os.Stderr, "Error: %s already exists (use --force to overwrite)\n", path)
			os.Exit(1)
		}

		app, err := whiteboard.New(appOptions()...)
		if err != nil {
			fatal("Failed to initialize", err)
		}

		ctx := context.Background()
		if err := app.SaveAs(ctx, path); err != nil {
			fatal("Failed to create session", err)
		}
		snap := app.Snapshot()
		if err := app.Close(ctx); err != nil {
			fatal("Failed to close session", err)
		}

		recordRecent(path, snap)
		fmt.Printf("Created '%s' (format %s).\n", path, session.FormatVersion)
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().BoolVarP(&newForce, "force", "f", false, "Overwrite an existing file")
}
