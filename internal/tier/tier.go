// Package tier implements the consequence-tier tracker: a tier value derived
// purely from elapsed time since the last compliance event. The tier is
// recomputed on every read, never stored as a drifting counter, and any
// single compliance event resets it to 0. The slow climb / instant drop
// asymmetry is the core incentive mechanic and must hold exactly.
package tier

import (
	"fmt"
	"time"
)

// MaxTier is the highest tier a threshold table may define.
const MaxTier = 9

// Threshold is one row of the tier table. Tier selection uses only
// DaysRequired; the remaining fields are descriptive configuration carried
// for the caller, not engine logic.
type Threshold struct {
	// Tier is the tier this row defines.
	Tier int `yaml:"tier" json:"tier"`

	// DaysRequired is the noncompliant-day count at which this tier is
	// reached. Must increase strictly down the table.
	DaysRequired int `yaml:"days_required" json:"days_required"`

	// Description is the human-readable consequence at this tier.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// PostsContent flags tiers whose consequence publishes content.
	PostsContent bool `yaml:"posts_content,omitempty" json:"posts_content,omitempty"`

	// VaultTier selects which vault tier is posted from, for tiers that
	// post content.
	VaultTier int `yaml:"vault_tier,omitempty" json:"vault_tier,omitempty"`

	// MaxVulnerability caps how exposing posted content may be.
	MaxVulnerability int `yaml:"max_vulnerability,omitempty" json:"max_vulnerability,omitempty"`
}

// Table is an ordered tier threshold table.
type Table []Threshold

// Validate rejects malformed tables at load time so evaluation can assume a
// well-formed table. The first row must be tier 0 at 0 days, tiers must be
// sequential, and day requirements must increase strictly.
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTable
	}
	if t[0].Tier != 0 || t[0].DaysRequired != 0 {
		return fmt.Errorf("%w: first row must be tier 0 at 0 days, got tier %d at %d",
			ErrMalformedTable, t[0].Tier, t[0].DaysRequired)
	}
	for i := 1; i < len(t); i++ {
		if t[i].Tier != t[i-1].Tier+1 {
			return fmt.Errorf("%w: tier %d follows tier %d", ErrMalformedTable, t[i].Tier, t[i-1].Tier)
		}
		if t[i].DaysRequired <= t[i-1].DaysRequired {
			return fmt.Errorf("%w: tier %d requires %d days, not above tier %d's %d",
				ErrNonMonotonicTable, t[i].Tier, t[i].DaysRequired, t[i-1].Tier, t[i-1].DaysRequired)
		}
	}
	if last := t[len(t)-1].Tier; last > MaxTier {
		return fmt.Errorf("%w: tier %d exceeds maximum %d", ErrMalformedTable, last, MaxTier)
	}
	return nil
}

// Compute returns the current tier: the highest tier whose DaysRequired is
// within the elapsed noncompliant days. Pure function of (now,
// lastComplianceAt); a zero lastComplianceAt means a new user, treated as
// compliant since account creation, tier 0.
func (t Table) Compute(lastComplianceAt, now time.Time) int {
	if lastComplianceAt.IsZero() {
		return 0
	}
	days := daysNoncompliant(lastComplianceAt, now)
	current := 0
	for _, row := range t {
		if row.DaysRequired <= days {
			current = row.Tier
		}
	}
	return current
}

// ThresholdFor returns the row defining the given tier.
func (t Table) ThresholdFor(tier int) (Threshold, bool) {
	for _, row := range t {
		if row.Tier == tier {
			return row, true
		}
	}
	return Threshold{}, false
}

// State is the per-user consequence state. LastComplianceAt is the only
// mutable field; the tier itself is always derived.
type State struct {
	// LastComplianceAt is when the user last performed any qualifying
	// compliance action. Zero means never, which reads as tier 0.
	LastComplianceAt time.Time `json:"last_compliance_at,omitempty"`
}

// RecordCompliance is the single write operation: it stamps now, resetting
// the derived tier to 0 no matter how high it had climbed. Any qualifying
// action triggers the full reset; concurrent calls are last-write-wins on
// the one timestamp.
func (s State) RecordCompliance(now time.Time) State {
	return State{LastComplianceAt: now}
}

// Tier returns the derived tier for this state against the table.
func (s State) Tier(t Table, now time.Time) int {
	return t.Compute(s.LastComplianceAt, now)
}

// DaysNoncompliant returns whole days since the last compliance event.
func (s State) DaysNoncompliant(now time.Time) int {
	if s.LastComplianceAt.IsZero() {
		return 0
	}
	return daysNoncompliant(s.LastComplianceAt, now)
}

func daysNoncompliant(last, now time.Time) int {
	if now.Before(last) {
		return 0
	}
	return int(now.Sub(last).Hours() / 24)
}
