package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/namuan/whiteboard/pkg/core"
	"github.com/namuan/whiteboard/pkg/session"
)

var (
	migrateDryRun bool
	migrateOutput string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [path]",
	Short: "Upgrade a session file to the current format version",
	Long: `Upgrade a session file to the current format version, in place unless
--output names a different file. Superseded fields are kept, so older
readers still find what they wrote.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			fatal("Failed to read session", err)
		}
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			fatal("Failed to parse session", err)
		}
		from, _ := doc["version"].(string)

		migrated, err := session.Migrate(doc)
		if err != nil {
			fatal("Failed to migrate", err)
		}
		to, _ := migrated["version"].(string)

		if from == to && migrateOutput == "" {
			fmt.Printf("'%s' is already at format %s.\n", path, to)
			return
		}
		if migrateDryRun {
			fmt.Printf("Would migrate '%s' from %s to %s.\n", path, from, to)
			return
		}

		out, err := json.MarshalIndent(migrated, "", "  ")
		if err != nil {
			fatal("Failed to encode session", err)
		}

		// The migrated document must load before it replaces anything.
		codec := session.NewCodec(core.SceneConfig{})
		scene, err := codec.Decode(context.Background(), out)
		if err != nil {
			fatal("Migration produced an unloadable session", err)
		}

		target := path
		if migrateOutput != "" {
			target = migrateOutput
		}
		if err := session.WriteFileAtomic(target, out, 0644); err != nil {
			fatal("Failed to write session", err)
		}

		recordRecent(target, scene.Snapshot())
		fmt.Printf("Migrated '%s' from %s to %s.\n", target, from, to)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "Report what would change without writing")
	migrateCmd.Flags().StringVarP(&migrateOutput, "output", "o", "", "Write the migrated session to a different file")
}
