package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veilborne/strata/internal/engine"
)

var advanceCmd = &cobra.Command{
	Use:   "advance <channel>",
	Short: "Advance a channel to its next level",
	Long: `Move a channel up one level. The gate is re-checked here and the
command fails closed if any criterion is unmet, so advancement cannot
bypass the configured rule. Advancing a channel already at the maximum
level is a no-op.

Examples:
  strata advance fitness`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ch, version, err := store.Channel(channelID)
		if err != nil {
			return err
		}

		before := ch.CurrentLevel
		advanced, err := engine.Advance(ch, cfg.EngineConfig(), time.Now().UTC())
		if err != nil {
			return err
		}
		if advanced.CurrentLevel == before {
			fmt.Printf("Channel %s already at maximum level %d\n", channelID, before)
			return nil
		}

		if err := store.SaveChannel(advanced, version); err != nil {
			return err
		}

		if done, err := encode(advanced); done || err != nil {
			return err
		}
		fmt.Printf("Channel %s advanced: level %d -> %d\n", channelID, before, advanced.CurrentLevel)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(advanceCmd)
}
