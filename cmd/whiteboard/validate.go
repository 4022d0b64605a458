package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/namuan/whiteboard/pkg/core"
	"github.com/namuan/whiteboard/pkg/session"
)

var (
	validateQuiet bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [path...]",
	Short: "Check that session files load cleanly",
	Long: `Check that session files parse, migrate, and decode into a consistent
scene. Exits nonzero when any file fails.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		codec := session.NewCodec(core.SceneConfig{})
		ctx := context.Background()

		failed := 0
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Printf("INVALID  %s: %v\n", path, err)
				failed++
				continue
			}
			scene, err := codec.Decode(ctx, data)
			if err != nil {
				fmt.Printf("INVALID  %s: %v\n", path, err)
				failed++
				continue
			}
			if validateQuiet {
				continue
			}
			snap := scene.Snapshot()
			fmt.Printf("OK       %s (%d notes, %d images, %d connections, %d groups)\n",
				path, len(snap.Notes), len(snap.Images), len(snap.Connections), len(snap.Groups))
		}

		if failed > 0 {
			fmt.Fprintf(os.Stderr, "%d of %d files failed validation\n", failed, len(args))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVarP(&validateQuiet, "quiet", "q", false, "Only report failures")
}
