package progression

import (
	"strings"
	"testing"
	"time"
)

func TestCheckAdvancement_SuspensionDominates(t *testing.T) {
	// Every other criterion is satisfied; suspension must still refuse.
	ch := Channel{
		ID:                    "fitness",
		CurrentLevel:          1,
		LastTransitionAt:      testNow.AddDate(0, 0, -30),
		TotalEventsAtLevel:    10,
		PositiveEventsAtLevel: 10,
		Suspension:            &Suspension{Reason: "external review", Type: SuspensionSafety},
	}
	rule := Rule{MinimumDays: 7, MinimumComplianceRate: 0.8}

	res := CheckAdvancement(ch, rule, testNow)
	if res.CanAdvance {
		t.Fatal("suspension must dominate all other criteria")
	}
	if !strings.Contains(res.Reason, "external review") {
		t.Errorf("reason = %q, want the suspension reason", res.Reason)
	}
}

func TestCheckAdvancement_Cooldown(t *testing.T) {
	ch := Channel{
		ID:                    "fitness",
		CurrentLevel:          1,
		LastTransitionAt:      testNow.AddDate(0, 0, -30),
		TotalEventsAtLevel:    10,
		PositiveEventsAtLevel: 10,
		CooldownUntil:         testNow.Add(24 * time.Hour),
	}

	res := CheckAdvancement(ch, Rule{}, testNow)
	if res.CanAdvance {
		t.Fatal("cooldown must block advancement")
	}
	if !strings.Contains(res.Reason, "cooldown") {
		t.Errorf("reason = %q, want a cooldown reason", res.Reason)
	}
}

func TestCheckAdvancement_MinimumDays(t *testing.T) {
	ch := Channel{
		ID:                    "fitness",
		CurrentLevel:          1,
		LastTransitionAt:      testNow.AddDate(0, 0, -3),
		TotalEventsAtLevel:    5,
		PositiveEventsAtLevel: 5,
	}
	rule := Rule{MinimumDays: 7, MinimumComplianceRate: 0.8}

	res := CheckAdvancement(ch, rule, testNow)
	if res.CanAdvance {
		t.Fatal("minimum days not met, must refuse")
	}
	if res.DaysAtLevel != 3 {
		t.Errorf("DaysAtLevel = %d, want 3", res.DaysAtLevel)
	}
}

func TestCheckAdvancement_ComplianceRate(t *testing.T) {
	ch := Channel{
		ID:                    "fitness",
		CurrentLevel:          1,
		LastTransitionAt:      testNow.AddDate(0, 0, -10),
		TotalEventsAtLevel:    10,
		PositiveEventsAtLevel: 7,
	}
	rule := Rule{MinimumDays: 7, MinimumComplianceRate: 0.8}

	res := CheckAdvancement(ch, rule, testNow)
	if res.CanAdvance {
		t.Fatal("compliance rate 0.7 must not clear 0.8")
	}
	if res.ComplianceRate != 0.7 {
		t.Errorf("ComplianceRate = %v, want 0.7", res.ComplianceRate)
	}
}

// A controlled channel with no tracked events at its level is provisionally
// compliant at the default rate.
func TestCheckAdvancement_NoEventsDefaultRate(t *testing.T) {
	ch := Channel{
		ID:               "fitness",
		CurrentLevel:     2,
		LastTransitionAt: testNow.AddDate(0, 0, -10),
	}
	rule := Rule{MinimumDays: 7, MinimumComplianceRate: 0.8}

	res := CheckAdvancement(ch, rule, testNow)
	if !res.CanAdvance {
		t.Fatalf("CanAdvance = false, reason %q", res.Reason)
	}
	if res.ComplianceRate != DefaultComplianceRate {
		t.Errorf("ComplianceRate = %v, want %v", res.ComplianceRate, DefaultComplianceRate)
	}
}

func TestCheckAdvancement_RuleDefaultRateOverride(t *testing.T) {
	ch := Channel{
		ID:               "fitness",
		CurrentLevel:     2,
		LastTransitionAt: testNow.AddDate(0, 0, -10),
	}
	rule := Rule{MinimumComplianceRate: 0.8, DefaultComplianceRate: 0.5}

	res := CheckAdvancement(ch, rule, testNow)
	if res.CanAdvance {
		t.Fatal("overridden default 0.5 must not clear required 0.8")
	}
}

func TestCheckAdvancement_Milestones(t *testing.T) {
	ch := Channel{
		ID:               "focus",
		CurrentLevel:     1,
		LastTransitionAt: testNow.AddDate(0, 0, -10),
		Milestones:       map[string]float64{"deep_hours": 2.0, "streak_weeks": 4},
	}
	rule := Rule{
		RequiredMilestones: map[string]float64{"deep_hours": 3.0, "streak_weeks": 4},
	}

	res := CheckAdvancement(ch, rule, testNow)
	if res.CanAdvance {
		t.Fatal("unmet milestone must refuse")
	}
	if !strings.Contains(res.Reason, "deep_hours") {
		t.Errorf("reason = %q, want the unmet milestone key", res.Reason)
	}
	if !res.MilestonesMet["streak_weeks"] || res.MilestonesMet["deep_hours"] {
		t.Errorf("MilestonesMet = %v", res.MilestonesMet)
	}

	ch.Milestones["deep_hours"] = 3.5
	if res := CheckAdvancement(ch, rule, testNow); !res.CanAdvance {
		t.Fatalf("all milestones met, reason %q", res.Reason)
	}
}

func TestCheckAdvancement_ReadOnly(t *testing.T) {
	ch := Channel{ID: "fitness", CurrentLevel: 1, TotalEventsAtLevel: 4, PositiveEventsAtLevel: 4}
	_ = CheckAdvancement(ch, Rule{MinimumDays: 7}, testNow)
	if ch.TotalEventsAtLevel != 4 || len(ch.History) != 0 {
		t.Error("CheckAdvancement mutated the snapshot")
	}
}

// Days at level resets with each transition: the basis is the last
// transition, not the first touch of the channel.
func TestDaysAtLevel_PerLevelReset(t *testing.T) {
	ch := Channel{
		ID:                  "fitness",
		CurrentLevel:        1,
		FirstReachedLevelAt: testNow.AddDate(0, 0, -60),
		FirstEventAt:        testNow.AddDate(0, 0, -90),
		LastTransitionAt:    testNow.AddDate(0, 0, -4),
	}
	if got := DaysAtLevel(ch, testNow); got != 4 {
		t.Errorf("DaysAtLevel = %d, want 4 (last transition, not first touch)", got)
	}
}

func TestDaysAtLevel_BeforeAnyTransition(t *testing.T) {
	ch := Channel{ID: "fitness", FirstEventAt: testNow.AddDate(0, 0, -8)}
	if got := DaysAtLevel(ch, testNow); got != 8 {
		t.Errorf("DaysAtLevel = %d, want 8 (first event basis)", got)
	}
	if got := DaysAtLevel(Channel{ID: "fresh"}, testNow); got != 0 {
		t.Errorf("DaysAtLevel on fresh channel = %d, want 0", got)
	}
}

func TestCheckAdvancement_AtMaxLevel(t *testing.T) {
	ch := Channel{
		ID:               "fitness",
		CurrentLevel:     MaxLevel,
		LastTransitionAt: testNow.AddDate(0, 0, -100),
	}
	res := CheckAdvancement(ch, Rule{}, testNow)
	if res.CanAdvance {
		t.Fatal("max level must not advance")
	}
}
