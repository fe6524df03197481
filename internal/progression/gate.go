package progression

import (
	"fmt"
	"sort"
	"time"
)

// DefaultComplianceRate is assumed for a controlled channel with no tracked
// events at its current level, when the rule does not override it.
const DefaultComplianceRate = 0.8

// Rule is the data-driven gate for advancing out of one level. Rules are
// configuration, never code: the same evaluator serves every channel.
type Rule struct {
	// MinimumDays the channel must have spent at its current level.
	MinimumDays int `yaml:"minimum_days" json:"minimum_days"`

	// MinimumComplianceRate is the required positive/total ratio at the
	// current level, in [0, 1].
	MinimumComplianceRate float64 `yaml:"minimum_compliance_rate" json:"minimum_compliance_rate"`

	// RequiredMilestones maps milestone keys to the minimum measured
	// value required. Satisfaction is a per-key threshold comparison,
	// fully data-driven.
	RequiredMilestones map[string]float64 `yaml:"required_milestones,omitempty" json:"required_milestones,omitempty"`

	// DefaultComplianceRate overrides the package default assumed when a
	// controlled channel has no events at its level. Zero means use the
	// package default.
	DefaultComplianceRate float64 `yaml:"default_compliance_rate,omitempty" json:"default_compliance_rate,omitempty"`
}

// GateResult reports the advancement decision and the evidence behind it.
type GateResult struct {
	// CanAdvance is true when every gate criterion is satisfied.
	CanAdvance bool `json:"can_advance"`

	// Reason explains the first failed criterion when CanAdvance is false.
	Reason string `json:"reason,omitempty"`

	// DaysAtLevel is whole days since the last transition.
	DaysAtLevel int `json:"days_at_level"`

	// ComplianceRate is the evaluated positive/total ratio.
	ComplianceRate float64 `json:"compliance_rate"`

	// MilestonesRequired echoes the rule's milestone thresholds.
	MilestonesRequired map[string]float64 `json:"milestones_required,omitempty"`

	// MilestonesMet reports per-key satisfaction.
	MilestonesMet map[string]bool `json:"milestones_met,omitempty"`
}

// DaysAtLevel returns whole days the channel has spent at its current
// level. The basis is the last transition; before any transition it is the
// first recorded event. Per-level reset semantics: a regression restarts
// the clock, so an old first-touch date cannot carry a channel back up.
func DaysAtLevel(c Channel, now time.Time) int {
	switch {
	case !c.LastTransitionAt.IsZero():
		return wholeDays(c.LastTransitionAt, now)
	case !c.FirstEventAt.IsZero():
		return wholeDays(c.FirstEventAt, now)
	default:
		return 0
	}
}

// CheckAdvancement evaluates the gate for moving the channel to its next
// level. Read-only: it never mutates state. Suspension strictly dominates
// every other criterion, then cooldown, then the rule's criteria.
func CheckAdvancement(c Channel, rule Rule, now time.Time) GateResult {
	res := GateResult{
		DaysAtLevel:        DaysAtLevel(c, now),
		ComplianceRate:     complianceRate(c, rule),
		MilestonesRequired: rule.RequiredMilestones,
		MilestonesMet:      milestonesMet(c, rule),
	}

	if c.Suspended(now) {
		res.Reason = suspensionReason(c)
		return res
	}
	if c.InCooldown(now) {
		res.Reason = fmt.Sprintf("in cooldown until %s", c.CooldownUntil.Format("2006-01-02"))
		return res
	}
	if c.CurrentLevel >= MaxLevel {
		res.Reason = "already at maximum level"
		return res
	}
	if res.DaysAtLevel < rule.MinimumDays {
		res.Reason = fmt.Sprintf("needs %d more days at level %d", rule.MinimumDays-res.DaysAtLevel, c.CurrentLevel)
		return res
	}
	if res.ComplianceRate < rule.MinimumComplianceRate {
		res.Reason = fmt.Sprintf("compliance rate %.2f below required %.2f", res.ComplianceRate, rule.MinimumComplianceRate)
		return res
	}
	if key, ok := firstUnmetMilestone(res.MilestonesMet); ok {
		res.Reason = fmt.Sprintf("milestone %q not met", key)
		return res
	}

	res.CanAdvance = true
	return res
}

func suspensionReason(c Channel) string {
	if c.Suspension != nil && c.Suspension.Reason != "" {
		return fmt.Sprintf("channel suspended: %s", c.Suspension.Reason)
	}
	return "channel suspended"
}

// complianceRate evaluates the positive/total ratio at the current level.
// A controlled channel with no tracked events is provisionally compliant at
// the configured default rate; an unstarted channel with no events is 0.
func complianceRate(c Channel, rule Rule) float64 {
	if c.TotalEventsAtLevel == 0 {
		if c.CurrentLevel > 0 {
			if rule.DefaultComplianceRate > 0 {
				return rule.DefaultComplianceRate
			}
			return DefaultComplianceRate
		}
		return 0
	}
	return float64(c.PositiveEventsAtLevel) / float64(c.TotalEventsAtLevel)
}

func milestonesMet(c Channel, rule Rule) map[string]bool {
	if len(rule.RequiredMilestones) == 0 {
		return nil
	}
	met := make(map[string]bool, len(rule.RequiredMilestones))
	for key, required := range rule.RequiredMilestones {
		met[key] = c.Milestones[key] >= required
	}
	return met
}

// firstUnmetMilestone returns the lexically first unmet milestone key so the
// failure reason is deterministic regardless of map iteration order.
func firstUnmetMilestone(met map[string]bool) (string, bool) {
	keys := make([]string, 0, len(met))
	for key, ok := range met {
		if !ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)
	return keys[0], true
}
