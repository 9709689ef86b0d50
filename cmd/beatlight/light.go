package main

import (
	"fmt"
	"log"
	"os"

	"github.com/satindergrewal/beatlight/internal/archive"
	"github.com/satindergrewal/beatlight/internal/batch"
	"github.com/satindergrewal/beatlight/internal/beatmap"
	"github.com/spf13/cobra"
)

var lightWorkers int

func init() {
	lightCmd.Flags().IntVarP(&lightWorkers, "workers", "w", 0, "concurrent documents (default from config)")
	rootCmd.AddCommand(lightCmd)
}

var lightCmd = &cobra.Command{
	Use:   "light <file|dir>...",
	Short: "Rewrite the light show of existing difficulty documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := collectDocuments(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no difficulty documents found")
		}

		workers := cfg.Workers
		if lightWorkers > 0 {
			workers = lightWorkers
		}
		results := batch.RelightAll(cmd.Context(), paths, workers)
		printResults(cmd.OutOrStdout(), results)

		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(results))
		}
		return nil
	},
}

// collectDocuments expands directories to the difficulty documents they
// hold. Info.dat named directly is skipped.
func collectDocuments(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if fi.IsDir() {
			docs, err := archive.BeatmapFilesIn(arg)
			if err != nil {
				return nil, err
			}
			paths = append(paths, docs...)
			continue
		}
		if beatmap.IsInfoFile(arg) {
			log.Printf("Skipping %s: metadata file, not a difficulty", arg)
			continue
		}
		paths = append(paths, arg)
	}
	return paths, nil
}
