package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/merchant-ops/internal/config"
)

var (
	cfg     *config.Config
	offline bool
)

var rootCmd = &cobra.Command{
	Use:   "merchant-ops",
	Short: "Merchant operations decision pipeline",
	Long:  "Normalizes merchant catalogs, reads customer sentiment, proposes validated price changes, and freezes automation during complaint spikes.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if offline {
			c.Inference.Offline = true
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "use the deterministic stub instead of the inference provider")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
