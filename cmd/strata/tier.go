package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var tierCmd = &cobra.Command{
	Use:   "tier",
	Short: "Show the current consequence tier",
	Long: `Derive the consequence tier from elapsed time since the last
compliance action. The tier is recomputed on every read from the configured
threshold table; nothing is stored except the compliance timestamp.

Examples:
  strata tier
  strata tier -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		state, err := store.Compliance()
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		current := state.Tier(cfg.Tiers, now)
		row, _ := cfg.Tiers.ThresholdFor(current)

		view := struct {
			Tier             int    `json:"tier" yaml:"tier"`
			DaysNoncompliant int    `json:"days_noncompliant" yaml:"days_noncompliant"`
			Description      string `json:"description,omitempty" yaml:"description,omitempty"`
			PostsContent     bool   `json:"posts_content" yaml:"posts_content"`
		}{
			Tier:             current,
			DaysNoncompliant: state.DaysNoncompliant(now),
			Description:      row.Description,
			PostsContent:     row.PostsContent,
		}
		if done, err := encode(view); done || err != nil {
			return err
		}

		fmt.Printf("Consequence tier %d (%d days noncompliant)\n", view.Tier, view.DaysNoncompliant)
		if view.Description != "" {
			fmt.Printf("  %s\n", view.Description)
		}
		if view.PostsContent {
			fmt.Printf("  This tier posts content (vault tier %d, max vulnerability %d)\n",
				row.VaultTier, row.MaxVulnerability)
		}
		return nil
	},
}

var complyCmd = &cobra.Command{
	Use:   "comply",
	Short: "Record a compliance action and reset the tier",
	Long: `Stamp the compliance timestamp. Any single qualifying action —
task completion, check-in, content submission, voice check-in, response to
outreach — resets the consequence tier to 0 no matter how high it had
climbed. The slow climb and instant drop are the point.

Examples:
  strata comply`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.RecordCompliance(time.Now().UTC()); err != nil {
			return err
		}
		fmt.Println("Compliance recorded; consequence tier reset to 0")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tierCmd)
	rootCmd.AddCommand(complyCmd)
}
