package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/veilborne/strata/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file and state database",
	Long: `Write the default configuration to the --config path, create the
--db database, and seed a zero-state row for every configured channel.

Re-running init never resets existing progression: seeded channels that
already exist are left untouched, and an existing config file is kept.

Examples:
  strata init
  strata init --config ./strata.yaml --db ./strata.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			if err := cfg.WriteFile(cfgFile); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			slog.Info("wrote default config", "path", cfgFile)
		} else {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = loaded
			slog.Info("config already exists, keeping it", "path", cfgFile)
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.SeedChannels(cfg.ChannelIDs()); err != nil {
			return err
		}
		fmt.Printf("Initialized %d channels in %s\n", len(cfg.Channels), dbFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
