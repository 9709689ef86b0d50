package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/satindergrewal/beatlight/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "beatlight",
	Short: "Generate Beat Saber levels and light them to the rhythm",
	Long: `beatlight submits audio to BeatSage for level generation and rewrites
each difficulty's event track with a rhythm-driven light show.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile == "" {
			cfg = config.Load()
			return nil
		}
		var err error
		cfg, err = config.LoadFile(cfgFile)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (environment variables still override it)")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
