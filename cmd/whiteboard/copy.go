package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/namuan/whiteboard"
	"github.com/namuan/whiteboard/pkg/core"
)

var (
	copyAll    bool
	copyStdout bool
)

var copyCmd = &cobra.Command{
	Use:   "copy [session] [note-id]",
	Short: "Copy a note's text to the system clipboard",
	Long: `Copy a note's text to the system clipboard. With --all the texts of
every note are copied, one per line, and no note id is needed.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		if !copyAll && len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Error: a note id is required unless --all is given")
			cmd.Usage()
			os.Exit(1)
		}

		ctx := context.Background()
		app, err := whiteboard.Open(ctx, path, appOptions()...)
		if err != nil {
			fatal("Failed to open session", err)
		}
		defer app.Close(ctx)

		var text string
		var found bool
		app.View(func(s *core.Scene) {
			if copyAll {
				var parts []string
				for _, n := range s.Notes() {
					parts = append(parts, n.Text)
				}
				text = strings.Join(parts, "\n")
				found = len(parts) > 0
				return
			}
			if n, ok := s.Note(core.EntityID(args[1])); ok {
				text = n.Text
				found = true
			}
		})
		if !found {
			if copyAll {
				fmt.Fprintln(os.Stderr, "Error: session has no notes")
			} else {
				fmt.Fprintf(os.Stderr, "Error: no note with id %s\n", args[1])
			}
			os.Exit(1)
		}

		if copyStdout {
			fmt.Print(text)
			if !strings.HasSuffix(text, "\n") {
				fmt.Println()
			}
			return
		}
		if err := clipboard.WriteAll(text); err != nil {
			fatal("Failed to write clipboard", err)
		}
		fmt.Printf("Copied %d characters.\n", len(text))
	},
}

func init() {
	rootCmd.AddCommand(copyCmd)
	copyCmd.Flags().BoolVar(&copyAll, "all", false, "Copy every note's text, one per line")
	copyCmd.Flags().BoolVar(&copyStdout, "stdout", false, "Print to stdout instead of the clipboard")
}
