package main

import (
	"time"

	"github.com/satindergrewal/beatlight/internal/watch"
	"github.com/spf13/cobra"
)

var watchDelay time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDelay, "debounce", 500*time.Millisecond, "quiet period before a changed file is relit")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Relight difficulty documents whenever they change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watch.New(args[0], watchDelay).Run(cmd.Context())
	},
}
