package progression

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Advance moves the channel up one level after re-checking the gate.
// It fails closed: if the gate refuses, the unchanged snapshot is returned
// with ErrAdvancementBlocked, so a caller that skipped CheckAdvancement
// cannot push a channel past its rule.
//
// Advancing at MaxLevel is a no-op returning the same state, not an error.
func Advance(c Channel, rule Rule, now time.Time) (Channel, error) {
	if c.CurrentLevel >= MaxLevel {
		return c, nil
	}
	if res := CheckAdvancement(c, rule, now); !res.CanAdvance {
		return c, fmt.Errorf("advance %s: %w: %s", c.ID, ErrAdvancementBlocked, res.Reason)
	}

	out := c.clone()
	from := out.CurrentLevel
	out.CurrentLevel++
	out.resetLevelCounters()
	out.LastTransitionAt = now
	if out.FirstReachedLevelAt.IsZero() {
		out.FirstReachedLevelAt = now
	}
	out.History = append(out.History, HistoryEntry{
		ID:        uuid.NewString(),
		Date:      now,
		FromLevel: from,
		ToLevel:   out.CurrentLevel,
		Trigger:   TriggerAdvancement,
	})
	return out, nil
}

// Regress forces the channel down to newLevel and opens a cooldown window.
// newLevel must lie in [0, CurrentLevel]; a suspended channel rejects the
// transition entirely.
func Regress(c Channel, newLevel int, cooldown time.Duration, trigger Trigger, now time.Time) (Channel, error) {
	if c.Suspended(now) {
		return c, fmt.Errorf("regress %s: %w", c.ID, ErrChannelSuspended)
	}
	if newLevel < 0 || newLevel > MaxLevel || newLevel > c.CurrentLevel {
		return c, fmt.Errorf("regress %s to %d from %d: %w", c.ID, newLevel, c.CurrentLevel, ErrInvalidTransition)
	}

	out := c.clone()
	from := out.CurrentLevel
	out.CurrentLevel = newLevel
	out.resetLevelCounters()
	out.LastTransitionAt = now
	if cooldown > 0 {
		out.CooldownUntil = now.Add(cooldown)
	}
	out.History = append(out.History, HistoryEntry{
		ID:        uuid.NewString(),
		Date:      now,
		FromLevel: from,
		ToLevel:   newLevel,
		Trigger:   trigger,
	})
	return out, nil
}

// Suspend freezes the channel. An already-suspended channel keeps its
// original suspension; lifting requires Resume.
func Suspend(c Channel, s Suspension, now time.Time) (Channel, error) {
	if c.Suspended(now) {
		return c, fmt.Errorf("suspend %s: %w", c.ID, ErrChannelSuspended)
	}
	out := c.clone()
	out.Suspension = &s
	return out, nil
}

// Resume lifts a suspension regardless of its scheduled resume time.
func Resume(c Channel) Channel {
	out := c.clone()
	out.Suspension = nil
	return out
}

// resetLevelCounters zeroes the per-level counters on every transition.
func (c *Channel) resetLevelCounters() {
	c.TotalEventsAtLevel = 0
	c.PositiveEventsAtLevel = 0
	c.ConsecutiveNegative = 0
}
