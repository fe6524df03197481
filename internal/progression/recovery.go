package progression

import (
	"fmt"
	"time"

	"github.com/veilborne/strata/internal/classify"
)

// Default recovery policy values, used when configuration leaves them zero.
const (
	// DefaultRecoveryThreshold is the consecutive-negative count that
	// triggers a recovery.
	DefaultRecoveryThreshold = 2

	// DefaultPartialCooldown follows a partial retreat.
	DefaultPartialCooldown = 7 * 24 * time.Hour

	// DefaultFullCooldown follows a full retreat.
	DefaultFullCooldown = 14 * 24 * time.Hour
)

// Policy configures the recovery controller.
type Policy struct {
	// Threshold is the consecutive-negative streak that triggers a
	// recovery. Zero means DefaultRecoveryThreshold.
	Threshold int `json:"threshold"`

	// PartialCooldown follows a partial retreat. Zero means default.
	PartialCooldown time.Duration `json:"partial_cooldown"`

	// FullCooldown follows a full retreat. Zero means default.
	FullCooldown time.Duration `json:"full_cooldown"`
}

// threshold returns the effective trigger streak.
func (p Policy) threshold() int {
	if p.Threshold > 0 {
		return p.Threshold
	}
	return DefaultRecoveryThreshold
}

func (p Policy) partialCooldown() time.Duration {
	if p.PartialCooldown > 0 {
		return p.PartialCooldown
	}
	return DefaultPartialCooldown
}

func (p Policy) fullCooldown() time.Duration {
	if p.FullCooldown > 0 {
		return p.FullCooldown
	}
	return DefaultFullCooldown
}

// RecoveryDecision is the outcome of a recovery check.
type RecoveryDecision struct {
	// Trigger is true when a recovery should fire.
	Trigger bool `json:"trigger"`

	// Type is the selected retreat severity when Trigger is true.
	Type Trigger `json:"type,omitempty"`

	// TargetLevel is the level to regress to when Trigger is true.
	TargetLevel int `json:"target_level"`

	// Cooldown is the window to apply when Trigger is true.
	Cooldown time.Duration `json:"cooldown"`

	// Reason explains the decision either way.
	Reason string `json:"reason,omitempty"`
}

// CheckRecovery decides whether the channel's negative streak warrants a
// forced regression. Severity keys off the last classification: an explicit
// callout selects a full retreat to level 0 with the long cooldown; repeated
// plain negatives select a partial retreat by one level.
//
// Applying the decision via Regress resets the streak, so a recovery absorbs
// it and cannot re-trigger on the very next event.
func CheckRecovery(c Channel, p Policy, now time.Time) RecoveryDecision {
	if c.Suspended(now) {
		return RecoveryDecision{Reason: "channel suspended, transitions frozen"}
	}
	if c.ConsecutiveNegative < p.threshold() {
		return RecoveryDecision{
			Reason: fmt.Sprintf("streak %d below threshold %d", c.ConsecutiveNegative, p.threshold()),
		}
	}

	if c.LastClassification == classify.Callout {
		return RecoveryDecision{
			Trigger:     true,
			Type:        TriggerFullRetreat,
			TargetLevel: 0,
			Cooldown:    p.fullCooldown(),
			Reason:      fmt.Sprintf("callout after %d consecutive negatives", c.ConsecutiveNegative),
		}
	}

	target := c.CurrentLevel - 1
	if target < 0 {
		target = 0
	}
	return RecoveryDecision{
		Trigger:     true,
		Type:        TriggerPartialRetreat,
		TargetLevel: target,
		Cooldown:    p.partialCooldown(),
		Reason:      fmt.Sprintf("%d consecutive negatives", c.ConsecutiveNegative),
	}
}

// ApplyRecovery executes a triggered decision against the channel. A
// non-triggering decision returns the snapshot unchanged.
func ApplyRecovery(c Channel, d RecoveryDecision, now time.Time) (Channel, error) {
	if !d.Trigger {
		return c, nil
	}
	return Regress(c, d.TargetLevel, d.Cooldown, d.Type, now)
}
