package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/namuan/whiteboard"
	"github.com/namuan/whiteboard/pkg/export"
)

var (
	exportScale   float64
	exportPadding float64
)

var exportCmd = &cobra.Command{
	Use:   "export [session] [output.png]",
	Short: "Render a session to a PNG image",
	Long: `Render every entity of a session to a PNG image sized to the content.
The output path defaults to the session path with a .png extension.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		out := strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
		if len(args) == 2 {
			out = args[1]
		}

		ctx := context.Background()
		app, err := whiteboard.Open(ctx, path, appOptions()...)
		if err != nil {
			fatal("Failed to open session", err)
		}
		defer app.Close(ctx)

		opts := whiteboard.ExportOptions{Scale: exportScale, Padding: exportPadding}
		if err := app.ExportPNG(out, opts); err != nil {
			if errors.Is(err, export.ErrEmptyScene) {
				fmt.Fprintln(os.Stderr, "Error: session has no content to render")
				os.Exit(1)
			}
			fatal("Failed to export", err)
		}

		recordRecent(path, app.Snapshot())
		fmt.Printf("Exported '%s'.\n", out)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().Float64Var(&exportScale, "scale", export.DefaultScale, "Render scale (pixels per scene unit)")
	exportCmd.Flags().Float64Var(&exportPadding, "padding", export.DefaultPadding, "Padding around the content, in scene units")
}
