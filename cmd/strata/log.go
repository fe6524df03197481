package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veilborne/strata/internal/classify"
	"github.com/veilborne/strata/internal/engine"
	"github.com/veilborne/strata/internal/progression"
)

var (
	logDescription  string
	logTags         []string
	logMeasurements []string
)

var logCmd = &cobra.Command{
	Use:   "log <channel> <response>",
	Short: "Log a response event against a channel",
	Long: `Classify a response, fold it into the channel's counters, and run
the recovery and advancement gates in that order: a triggered recovery
regresses the channel in the same transaction and pre-empts advancement.

The response must be one of the fixed taxonomy values (positive, neutral,
negative, callout, no_reaction); unrecognized input is rejected, never
silently defaulted.

Events against a suspended channel are kept in the audit log, but counters
and gates are skipped until the suspension lifts.

Examples:
  strata log fitness positive --desc "Morning run done"
  strata log media negative --tag late-night
  strata log focus positive --measure deep_hours=3.5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID, rawResponse := args[0], args[1]

		classification, err := classify.Parse(rawResponse)
		if err != nil {
			return err
		}
		measurements, err := parseMeasurements(logMeasurements)
		if err != nil {
			return err
		}

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

		now := time.Now().UTC()
		ev := progression.Event{
			ID:             uuid.NewString(),
			ChannelID:      channelID,
			Timestamp:      now,
			Classification: classification,
			Description:    logDescription,
			ContextTags:    logTags,
			Measurements:   measurements,
		}

		outcome, err := engine.ProcessEvent(ch, ev, cfg.EngineConfig(), now)
		if errors.Is(err, progression.ErrChannelSuspended) {
			// Suspension freezes progression, not observation: keep
			// the event for audit and report the freeze.
			if logErr := store.LogEvent(ev, true); logErr != nil {
				return logErr
			}
			fmt.Printf("Channel %s is suspended; event kept for audit only\n", channelID)
			return nil
		}
		if err != nil {
			return err
		}

		if err := store.LogEvent(ev, false); err != nil {
			return err
		}
		if err := store.SaveChannel(outcome.Channel, version); err != nil {
			return err
		}
		slog.Debug("event recorded",
			"channel", channelID,
			"classification", classification,
			"level", outcome.Channel.CurrentLevel)

		return reportOutcome(outcome)
	},
}

func init() {
	logCmd.Flags().StringVar(&logDescription, "desc", "", "Description of the interaction")
	logCmd.Flags().StringSliceVar(&logTags, "tag", nil, "Context tag (repeatable)")
	logCmd.Flags().StringSliceVar(&logMeasurements, "measure", nil, "Milestone measurement key=value (repeatable)")
	rootCmd.AddCommand(logCmd)
}

// parseMeasurements parses repeated key=value flags into a measurement map.
func parseMeasurements(raw []string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(raw))
	for _, pair := range raw {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid measurement %q, want key=value", pair)
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid measurement %q: %w", pair, err)
		}
		out[key] = f
	}
	return out, nil
}

func reportOutcome(outcome engine.Outcome) error {
	if done, err := encode(outcome); done || err != nil {
		return err
	}

	ch := outcome.Channel
	fmt.Printf("Logged %s on %s (level %d)\n", outcome.Event.Classification, ch.ID, ch.CurrentLevel)
	if outcome.Recovery.Trigger {
		fmt.Printf("Recovery fired: %s to level %d, cooldown until %s\n",
			outcome.Recovery.Type, outcome.Recovery.TargetLevel,
			ch.CooldownUntil.Format("2006-01-02"))
	}
	if outcome.Gate.CanAdvance {
		fmt.Printf("Gate open: run `strata advance %s` to move to level %d\n", ch.ID, ch.CurrentLevel+1)
	} else {
		fmt.Printf("Gate closed: %s\n", outcome.Gate.Reason)
	}
	return nil
}
