package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/veilborne/strata/internal/engine"
	"github.com/veilborne/strata/internal/progression"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Composite score, cascades, and per-channel state",
	Long: `Compute the cross-channel summary over one consistent snapshot of
every channel: average level, leading and lagging channels, widest gap,
cascade levels, and the overall health label. The computed average is
stored so the next status run can detect regression against it.

A channel whose stored snapshot fails validation is excluded from the
summary and listed, never fatal to the rest.

Examples:
  strata status
  strata status -o json`,
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

		channels, err := store.Channels()
		if err != nil {
			return err
		}
		prior, err := store.PriorAverage()
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		summary := engine.Summarize(channels, cfg.EngineConfig(), prior, now)
		if err := store.SaveSummaryAverage(summary.Composite.Average, now); err != nil {
			return err
		}

		if done, err := encode(summary); done || err != nil {
			return err
		}
		return printSummaryTable(summary, channels, now)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func printSummaryTable(summary engine.Summary, channels []progression.Channel, now time.Time) error {
	comp := summary.Composite
	fmt.Printf("Overall: %s  (average %.2f, gap %d, started %d, at max %d)\n",
		comp.Label, comp.Average, comp.WidestGap, comp.ChannelsStarted, comp.ChannelsAtMax)
	if comp.Leading != "" {
		fmt.Printf("Leading: %s  Lagging: %s\n", comp.Leading, comp.Lagging)
	}
	if len(summary.Cascades) > 0 {
		fmt.Printf("Cascades at level(s): %v\n", summary.Cascades)
	}
	for _, skipped := range summary.Skipped {
		fmt.Printf("Skipped %s: %s\n", skipped.ID, skipped.Err)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nCHANNEL\tLEVEL\tEVENTS\tSTREAK\tDAYS\tSTATE")
	for _, c := range channels {
		fmt.Fprintf(w, "%s\t%d\t%d/%d\t%d\t%d\t%s\n",
			c.ID, c.CurrentLevel, c.PositiveEventsAtLevel, c.TotalEventsAtLevel,
			c.ConsecutiveNegative, c.DaysUnderControl(now), channelState(c, now))
	}
	return w.Flush()
}

// channelState renders the transient window a channel is in, if any.
func channelState(c progression.Channel, now time.Time) string {
	switch {
	case c.Suspended(now):
		return "suspended"
	case c.InCooldown(now):
		return fmt.Sprintf("cooldown until %s", c.CooldownUntil.Format("2006-01-02"))
	case !c.Started():
		return "not started"
	default:
		return "active"
	}
}
