// Package progression implements the per-channel escalation state machine:
// event recording, gated advancement, recovery-driven regression, cooldown
// windows, and suspension freezes. All operations take a channel snapshot and
// return a new snapshot; the caller owns persistence and must serialize
// writes to the same channel (single-writer, see Store.SaveChannel).
package progression

import (
	"time"

	"github.com/veilborne/strata/internal/classify"
)

// MaxLevel is the highest level a channel can reach.
const MaxLevel = 5

// Trigger identifies what caused a level transition.
type Trigger string

const (
	// TriggerAdvancement marks a gated move to the next level.
	TriggerAdvancement Trigger = "advancement"

	// TriggerPartialRetreat marks a one-level recovery regression.
	TriggerPartialRetreat Trigger = "partial_retreat"

	// TriggerFullRetreat marks a recovery regression to level 0.
	TriggerFullRetreat Trigger = "full_retreat"

	// TriggerManual marks an operator-initiated regression.
	TriggerManual Trigger = "manual"
)

// SuspensionType categorizes why a channel is frozen.
type SuspensionType string

const (
	SuspensionManual    SuspensionType = "manual"
	SuspensionScheduled SuspensionType = "scheduled"
	SuspensionSafety    SuspensionType = "safety"
)

// Suspension freezes all transitions on a channel. Events may still be
// logged for audit while suspended, but counters and gates are skipped.
type Suspension struct {
	// Reason explains the freeze; surfaced verbatim by the gate.
	Reason string `json:"reason"`

	// Type categorizes the suspension.
	Type SuspensionType `json:"type"`

	// ResumeAfter, when set, lets the suspension expire passively.
	// Zero means the suspension holds until lifted manually.
	ResumeAfter time.Time `json:"resume_after,omitempty"`
}

// Active reports whether the suspension is still in force at now.
func (s *Suspension) Active(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.ResumeAfter.IsZero() {
		return true
	}
	return now.Before(s.ResumeAfter)
}

// HistoryEntry records a single level transition. History is append-only:
// entries are never edited or removed, corrections are new transitions.
type HistoryEntry struct {
	// ID is the unique entry identifier.
	ID string `json:"id"`

	// Date is when the transition occurred.
	Date time.Time `json:"date"`

	// FromLevel is the level before the transition.
	FromLevel int `json:"from_level"`

	// ToLevel is the level after the transition.
	ToLevel int `json:"to_level"`

	// Trigger identifies what caused the transition.
	Trigger Trigger `json:"trigger"`
}

// Event is a single logged interaction, immutable once recorded.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// ChannelID is the channel the event belongs to.
	ChannelID string `json:"channel_id"`

	// Timestamp is when the interaction occurred.
	Timestamp time.Time `json:"timestamp"`

	// Classification is the taxonomy bucket for the response.
	Classification classify.Classification `json:"classification"`

	// Description is the raw logged description.
	Description string `json:"description,omitempty"`

	// ContextTags carry free-form context for later review.
	ContextTags []string `json:"context_tags,omitempty"`

	// Measurements carry scored milestone values observed with this
	// event; they fold into the channel's milestone map.
	Measurements map[string]float64 `json:"measurements,omitempty"`
}

// Channel is the snapshot of one progression dimension. The zero value is a
// valid unstarted channel at level 0.
type Channel struct {
	// ID is the stable channel identifier from the configured set.
	ID string `json:"id"`

	// CurrentLevel is the position on the 0..MaxLevel scale. 0 means
	// not started. Only Advance and Regress may change it.
	CurrentLevel int `json:"current_level"`

	// FirstReachedLevelAt is when the channel first entered level >= 1.
	// Set once, never cleared; basis for the days-under-control stat.
	FirstReachedLevelAt time.Time `json:"first_reached_level_at,omitempty"`

	// LastTransitionAt is when the last advance or regress occurred.
	// Basis for days-at-level (per-level reset semantics).
	LastTransitionAt time.Time `json:"last_transition_at,omitempty"`

	// FirstEventAt is when the first event was ever recorded. Used as
	// the days-at-level basis before any transition has happened.
	FirstEventAt time.Time `json:"first_event_at,omitempty"`

	// TotalEventsAtLevel counts events since the last transition.
	TotalEventsAtLevel int `json:"total_events_at_level"`

	// PositiveEventsAtLevel counts positive events since the last transition.
	PositiveEventsAtLevel int `json:"positive_events_at_level"`

	// TotalEvents counts every event ever recorded on the channel.
	TotalEvents int `json:"total_events"`

	// ConsecutiveNegative is the running negative/callout streak. Reset
	// by any positive event and absorbed by a triggered recovery.
	ConsecutiveNegative int `json:"consecutive_negative"`

	// LastClassification is the classification of the latest event;
	// recovery severity keys off it.
	LastClassification classify.Classification `json:"last_classification,omitempty"`

	// CooldownUntil blocks advancement while now is before it. Events
	// may still be logged during cooldown.
	CooldownUntil time.Time `json:"cooldown_until,omitempty"`

	// Suspension, when active, freezes all transitions.
	Suspension *Suspension `json:"suspension,omitempty"`

	// Milestones holds the latest measured value per milestone key.
	Milestones map[string]float64 `json:"milestones,omitempty"`

	// History is the append-only transition log.
	History []HistoryEntry `json:"history,omitempty"`
}

// Suspended reports whether the channel is frozen at now.
func (c Channel) Suspended(now time.Time) bool {
	return c.Suspension.Active(now)
}

// InCooldown reports whether advancement is blocked by a cooldown at now.
func (c Channel) InCooldown(now time.Time) bool {
	return !c.CooldownUntil.IsZero() && now.Before(c.CooldownUntil)
}

// Started reports whether the channel has any activity: a level above 0 or
// at least one logged event.
func (c Channel) Started() bool {
	return c.CurrentLevel > 0 || c.TotalEvents > 0
}

// DaysUnderControl returns whole days since the channel first reached
// level 1, or 0 if it never has.
func (c Channel) DaysUnderControl(now time.Time) int {
	if c.FirstReachedLevelAt.IsZero() {
		return 0
	}
	return wholeDays(c.FirstReachedLevelAt, now)
}

// LastAdvancedAt returns the date of the most recent advancement, or the
// zero time if the channel has never advanced.
func (c Channel) LastAdvancedAt() time.Time {
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i].Trigger == TriggerAdvancement {
			return c.History[i].Date
		}
	}
	return time.Time{}
}

// ApplyExpiry clears an expired suspension and an elapsed cooldown. Expiry
// is passive: there are no timers, only this comparison against now.
func (c Channel) ApplyExpiry(now time.Time) Channel {
	out := c.clone()
	if out.Suspension != nil && !out.Suspension.Active(now) {
		out.Suspension = nil
	}
	if !out.CooldownUntil.IsZero() && !now.Before(out.CooldownUntil) {
		out.CooldownUntil = time.Time{}
	}
	return out
}

// clone returns a deep copy so operations never mutate the input snapshot.
func (c Channel) clone() Channel {
	out := c
	if c.Suspension != nil {
		s := *c.Suspension
		out.Suspension = &s
	}
	if c.Milestones != nil {
		out.Milestones = make(map[string]float64, len(c.Milestones))
		for k, v := range c.Milestones {
			out.Milestones[k] = v
		}
	}
	if c.History != nil {
		out.History = make([]HistoryEntry, len(c.History))
		copy(out.History, c.History)
	}
	return out
}

// wholeDays returns the floor of the elapsed time between from and to in
// days, never negative.
func wholeDays(from, to time.Time) int {
	if from.IsZero() || to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
