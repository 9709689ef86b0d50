package main

import (
	"fmt"
	"os"

	"github.com/satindergrewal/beatlight/internal/audio"
	"github.com/satindergrewal/beatlight/internal/batch"
	"github.com/satindergrewal/beatlight/internal/beatsage"
	"github.com/spf13/cobra"
)

var genFlags struct {
	input        string
	output       string
	difficulties string
	modes        string
	events       string
	environment  string
	modelTag     string
	urls         []string
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genFlags.input, "input", "i", "", "input folder containing audio files")
	f.StringVarP(&genFlags.output, "output", "o", "", "output folder for generated levels (defaults to the input folder)")
	f.StringVarP(&genFlags.difficulties, "difficulties", "d", "", "comma-separated difficulties: Hard,Expert,ExpertPlus,Normal")
	f.StringVarP(&genFlags.modes, "modes", "m", "", "comma-separated modes: Standard,90Degree,NoArrows,OneSaber")
	f.StringVarP(&genFlags.events, "events", "e", "", "comma-separated events: DotBlocks,Obstacles,Bombs")
	f.StringVar(&genFlags.environment, "environment", "", "environment name (e.g. DefaultEnvironment, Origins)")
	f.StringVarP(&genFlags.modelTag, "model-tag", "t", "", "model version: v1, v2, v2-flow")
	f.StringArrayVar(&genFlags.urls, "url", nil, "download source audio from this URL into the input folder first (repeatable)")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate [input-dir]",
	Short: "Generate and light levels for every audio file in a folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := resolveInput(genFlags.input, args)
		if err != nil {
			return err
		}
		opts := generateOptions(cmd)

		if len(genFlags.urls) > 0 {
			if err := os.MkdirAll(input, 0o755); err != nil {
				return fmt.Errorf("create input dir: %w", err)
			}
			batch.FetchSources(cmd.Context(), audio.NewFetcher(), genFlags.urls, input)
		}

		client := beatsage.NewClient(cfg.BeatSageURL, cfg.BeatSageCookie)
		sum, err := batch.NewRunner(client, opts).Run(cmd.Context(), input)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), sum)
		return nil
	},
}

// resolveInput accepts the folder as --input or as the only argument.
func resolveInput(flag string, args []string) (string, error) {
	switch {
	case flag != "" && len(args) == 1 && args[0] != flag:
		return "", fmt.Errorf("input given twice: --input %s and %s", flag, args[0])
	case flag != "":
		return flag, nil
	case len(args) == 1:
		return args[0], nil
	}
	return "", fmt.Errorf("an input folder is required (--input or a single argument)")
}

// generateOptions starts from the loaded config and applies the flags the
// user set explicitly.
func generateOptions(cmd *cobra.Command) batch.Options {
	opts := batch.Options{
		Difficulties: cfg.Difficulties,
		Modes:        cfg.Modes,
		Events:       cfg.Events,
		Environment:  cfg.Environment,
		ModelTag:     cfg.ModelTag,
		OutputDir:    cfg.OutputDir,
		PollInterval: cfg.PollInterval,
		PollAttempts: cfg.PollAttempts,
		Workers:      cfg.Workers,
	}
	overrides := []struct {
		name string
		dst  *string
		val  string
	}{
		{"output", &opts.OutputDir, genFlags.output},
		{"difficulties", &opts.Difficulties, genFlags.difficulties},
		{"modes", &opts.Modes, genFlags.modes},
		{"events", &opts.Events, genFlags.events},
		{"environment", &opts.Environment, genFlags.environment},
		{"model-tag", &opts.ModelTag, genFlags.modelTag},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.name) {
			*o.dst = o.val
		}
	}
	return opts
}
