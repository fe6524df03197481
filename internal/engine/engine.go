// Package engine is the orchestration facade over the escalation machinery.
// It sequences one event through classify -> record -> recovery gate ->
// advancement gate, and computes cross-channel summaries from a single
// consistent snapshot set.
//
// Every function here is a pure read-modify-return over plain data. The
// caller owns persistence and must serialize the record/check/transition
// sequence per channel; two concurrent writers racing the same channel would
// silently drop a history entry. The storage layer's version check enforces
// this at the write boundary.
package engine

import (
	"fmt"
	"time"

	"github.com/veilborne/strata/internal/aggregate"
	"github.com/veilborne/strata/internal/classify"
	"github.com/veilborne/strata/internal/progression"
	"github.com/veilborne/strata/internal/tier"
)

// Config is the full data-driven configuration the engine evaluates
// against. Nothing in it is per-channel: the same rules serve every channel
// identically.
type Config struct {
	// Rules maps a level to the gate for advancing out of it. Missing
	// levels fall back to the highest defined level's rule.
	Rules map[int]progression.Rule

	// Recovery is the streak policy.
	Recovery progression.Policy

	// TierTable is the validated consequence tier table.
	TierTable tier.Table

	// CascadeThreshold is the channel count at one level that flags a
	// cascade.
	CascadeThreshold int
}

// RuleFor returns the gating rule for advancing out of level. When the
// exact level is not configured the nearest lower configured level applies,
// so a short rule table still covers the whole scale.
func (c Config) RuleFor(level int) progression.Rule {
	if r, ok := c.Rules[level]; ok {
		return r
	}
	for l := level - 1; l >= 0; l-- {
		if r, ok := c.Rules[l]; ok {
			return r
		}
	}
	return progression.Rule{}
}

// Outcome reports everything one event did to a channel.
type Outcome struct {
	// Channel is the new snapshot after recording and any recovery.
	Channel progression.Channel `json:"channel"`

	// Event is the recorded event with its assigned classification.
	Event progression.Event `json:"event"`

	// Recovery is the recovery decision; when it triggered, Channel
	// already reflects the regression.
	Recovery progression.RecoveryDecision `json:"recovery"`

	// Gate is the advancement check over the final state. Advancement
	// itself remains a separate explicit call.
	Gate progression.GateResult `json:"gate"`
}

// ProcessEvent runs one raw response through the full per-channel pipeline.
// Recovery runs before the advancement check: a regression in the same
// transaction must pre-empt an advancement.
//
// The returned snapshot is new state for the caller to persist; the input
// is never mutated. A suspended channel returns ErrChannelSuspended — the
// caller may still log the raw event for audit.
func ProcessEvent(c progression.Channel, ev progression.Event, cfg Config, now time.Time) (Outcome, error) {
	c = c.ApplyExpiry(now)

	recorded, err := progression.RecordEvent(c, ev, now)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Event: ev}
	out.Recovery = progression.CheckRecovery(recorded, cfg.Recovery, now)
	recorded, err = progression.ApplyRecovery(recorded, out.Recovery, now)
	if err != nil {
		return Outcome{}, fmt.Errorf("apply recovery: %w", err)
	}

	out.Channel = recorded
	out.Gate = progression.CheckAdvancement(recorded, cfg.RuleFor(recorded.CurrentLevel), now)
	return out, nil
}

// Classify maps a raw response string to its taxonomy bucket. Thin
// passthrough so callers of the facade need not import classify directly.
func Classify(raw string) (classify.Classification, error) {
	return classify.Parse(raw)
}

// Advance explicitly moves a channel up one level, re-checking the gate and
// failing closed. Advancing at MaxLevel is a no-op.
func Advance(c progression.Channel, cfg Config, now time.Time) (progression.Channel, error) {
	c = c.ApplyExpiry(now)
	return progression.Advance(c, cfg.RuleFor(c.CurrentLevel), now)
}

// SkippedChannel names a channel excluded from a summary and why.
type SkippedChannel struct {
	ID  string `json:"id"`
	Err string `json:"error"`
}

// Summary is the cross-channel view over one snapshot set.
type Summary struct {
	// Composite is the aggregate score over the valid channels.
	Composite aggregate.Composite `json:"composite"`

	// Cascades lists the levels where enough channels converge.
	Cascades []int `json:"cascades,omitempty"`

	// Skipped lists channels excluded because their snapshots failed
	// validation. One bad channel never poisons the rest.
	Skipped []SkippedChannel `json:"skipped,omitempty"`
}

// Summarize computes cascade detection and the composite score over one
// consistent snapshot of the full channel set. Invalid snapshots are
// excluded and reported rather than failing the summary. priorAverage
// enables the regressing label; pass a negative value without a prior
// period.
func Summarize(channels []progression.Channel, cfg Config, priorAverage float64, now time.Time) Summary {
	valid := make([]progression.Channel, 0, len(channels))
	var skipped []SkippedChannel
	for _, c := range channels {
		c = c.ApplyExpiry(now)
		if err := c.Validate(); err != nil {
			skipped = append(skipped, SkippedChannel{ID: c.ID, Err: err.Error()})
			continue
		}
		valid = append(valid, c)
	}

	return Summary{
		Composite: aggregate.ComputeComposite(valid, priorAverage),
		Cascades:  aggregate.DetectCascades(valid, cfg.CascadeThreshold),
		Skipped:   skipped,
	}
}
