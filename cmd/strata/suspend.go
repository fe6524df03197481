package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veilborne/strata/internal/progression"
)

var (
	suspendReason string
	suspendType   string
	suspendDays   int
)

var suspendCmd = &cobra.Command{
	Use:   "suspend <channel>",
	Short: "Freeze all transitions on a channel",
	Long: `Suspend a channel. While suspended, advancement, regression, and
event counting are frozen; events are still kept in the audit log. The
channel continues to count toward cascades at its frozen level.

With --days the suspension expires passively; without it the suspension
holds until ` + "`strata resume`" + `.

Examples:
  strata suspend media --reason "travel week" --days 7
  strata suspend finance --reason "external review" --type safety`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID := args[0]

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ch, version, err := store.Channel(channelID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		s := progression.Suspension{
			Reason: suspendReason,
			Type:   progression.SuspensionType(suspendType),
		}
		if suspendDays > 0 {
			s.ResumeAfter = now.AddDate(0, 0, suspendDays)
		}

		suspended, err := progression.Suspend(ch, s, now)
		if err != nil {
			return err
		}
		if err := store.SaveChannel(suspended, version); err != nil {
			return err
		}

		if suspendDays > 0 {
			fmt.Printf("Channel %s suspended until %s\n", channelID, s.ResumeAfter.Format("2006-01-02"))
		} else {
			fmt.Printf("Channel %s suspended until resumed\n", channelID)
		}
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <channel>",
	Short: "Lift a channel's suspension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID := args[0]

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ch, version, err := store.Channel(channelID)
		if err != nil {
			return err
		}
		if ch.Suspension == nil {
			fmt.Printf("Channel %s is not suspended\n", channelID)
			return nil
		}

		if err := store.SaveChannel(progression.Resume(ch), version); err != nil {
			return err
		}
		fmt.Printf("Channel %s resumed\n", channelID)
		return nil
	},
}

func init() {
	suspendCmd.Flags().StringVar(&suspendReason, "reason", "", "Why the channel is frozen")
	suspendCmd.Flags().StringVar(&suspendType, "type", string(progression.SuspensionManual), "Suspension type (manual, scheduled, safety)")
	suspendCmd.Flags().IntVar(&suspendDays, "days", 0, "Days until the suspension expires passively (0 = until resumed)")
	rootCmd.AddCommand(suspendCmd)
	rootCmd.AddCommand(resumeCmd)
}
