package progression

import (
	"fmt"
	"time"
)

// RecordEvent folds one event into the channel's counters and returns the
// new snapshot. It never advances or regresses; those are explicit, separate
// calls driven by the gate and recovery checks.
//
// A suspended channel rejects the recording: suspension freezes progression,
// not observation, so the caller may still append the raw event to the audit
// log, but counters and any consequent check are skipped.
func RecordEvent(c Channel, ev Event, now time.Time) (Channel, error) {
	if c.Suspended(now) {
		return c, fmt.Errorf("record event on %s: %w", c.ID, ErrChannelSuspended)
	}
	if !ev.Classification.IsValid() {
		return c, fmt.Errorf("record event on %s: invalid classification %q", c.ID, ev.Classification)
	}
	if ev.ChannelID != "" && ev.ChannelID != c.ID {
		return c, fmt.Errorf("record event %s on %s: %w", ev.ChannelID, c.ID, ErrChannelMismatch)
	}

	out := c.clone()
	out.TotalEventsAtLevel++
	out.TotalEvents++
	out.LastClassification = ev.Classification
	if out.FirstEventAt.IsZero() {
		out.FirstEventAt = ev.Timestamp
	}

	switch {
	case ev.Classification.IsPositive():
		out.PositiveEventsAtLevel++
		out.ConsecutiveNegative = 0
	case ev.Classification.IsNegative():
		out.ConsecutiveNegative++
	}
	// neutral and no_reaction leave the streak untouched

	if len(ev.Measurements) > 0 {
		if out.Milestones == nil {
			out.Milestones = make(map[string]float64, len(ev.Measurements))
		}
		for k, v := range ev.Measurements {
			out.Milestones[k] = v
		}
	}

	return out, nil
}
