package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <channel>",
	Short: "Show a channel's transitions and recent events",
	Long: `Print the append-only escalation history for a channel followed by
its most recent events. History entries are never edited or removed;
corrections show up as new transitions.

Examples:
  strata history fitness
  strata history media --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID := args[0]

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ch, _, err := store.Channel(channelID)
		if err != nil {
			return err
		}
		events, err := store.Events(channelID, historyLimit)
		if err != nil {
			return err
		}

		if done, err := encode(struct {
			History any `json:"history" yaml:"history"`
			Events  any `json:"events" yaml:"events"`
		}{ch.History, events}); done || err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tTRANSITION\tTRIGGER")
		for _, h := range ch.History {
			fmt.Fprintf(w, "%s\t%d -> %d\t%s\n",
				h.Date.Format("2006-01-02"), h.FromLevel, h.ToLevel, h.Trigger)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if len(events) == 0 {
			return nil
		}
		fmt.Println()
		ew := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(ew, "DATE\tCLASSIFICATION\tTAGS\tDESCRIPTION")
		for _, ev := range events {
			fmt.Fprintf(ew, "%s\t%s\t%s\t%s\n",
				ev.Timestamp.Format("2006-01-02"), ev.Classification,
				strings.Join(ev.ContextTags, ","), ev.Description)
		}
		return ew.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum events to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}
