package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/veilborne/strata/internal/progression"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func startedChannel(id string, level int, lastAdvanced time.Time) progression.Channel {
	c := progression.Channel{ID: id, CurrentLevel: level, TotalEvents: 1}
	if !lastAdvanced.IsZero() {
		c.History = []progression.HistoryEntry{{
			ID: "h-" + id, Date: lastAdvanced,
			FromLevel: level - 1, ToLevel: level,
			Trigger: progression.TriggerAdvancement,
		}}
	}
	return c
}

// Scenario: five started channels at [1,3,2,4,1] average 2.2, the level-4
// channel leads, a level-1 channel lags, gap 3, label uneven. The lagging
// tie between the two level-1 channels breaks by most recent advancement.
func TestComputeComposite_Scenario(t *testing.T) {
	channels := []progression.Channel{
		startedChannel("a", 1, testNow.AddDate(0, 0, -30)),
		startedChannel("b", 3, testNow.AddDate(0, 0, -10)),
		startedChannel("c", 2, testNow.AddDate(0, 0, -20)),
		startedChannel("d", 4, testNow.AddDate(0, 0, -5)),
		startedChannel("e", 1, testNow.AddDate(0, 0, -2)),
	}

	comp := ComputeComposite(channels, -1)
	if math.Abs(comp.Average-2.2) > 1e-9 {
		t.Errorf("Average = %v, want 2.2", comp.Average)
	}
	if comp.Leading != "d" {
		t.Errorf("Leading = %q, want d", comp.Leading)
	}
	if comp.Lagging != "e" {
		t.Errorf("Lagging = %q, want e (most recently advanced of the tied pair)", comp.Lagging)
	}
	if comp.WidestGap != 3 {
		t.Errorf("WidestGap = %d, want 3", comp.WidestGap)
	}
	if comp.ChannelsStarted != 5 {
		t.Errorf("ChannelsStarted = %d, want 5", comp.ChannelsStarted)
	}
	if comp.Label != LabelUneven {
		t.Errorf("Label = %q, want uneven", comp.Label)
	}
}

// Unstarted channels are excluded from the average but a channel with
// logged events and no level still counts as started.
func TestComputeComposite_StartedCounting(t *testing.T) {
	channels := []progression.Channel{
		{ID: "untouched"},
		{ID: "events-only", TotalEvents: 3},
		startedChannel("leveled", 2, testNow),
	}

	comp := ComputeComposite(channels, -1)
	if comp.ChannelsStarted != 2 {
		t.Errorf("ChannelsStarted = %d, want 2", comp.ChannelsStarted)
	}
	if comp.Average != 2 {
		t.Errorf("Average = %v, want 2 (events-only channel excluded)", comp.Average)
	}
	// The events-only channel sits at level 0 and therefore lags.
	if comp.Lagging != "events-only" {
		t.Errorf("Lagging = %q, want events-only", comp.Lagging)
	}
}

func TestComputeComposite_Empty(t *testing.T) {
	comp := ComputeComposite(nil, -1)
	if comp.ChannelsStarted != 0 || comp.Average != 0 {
		t.Errorf("composite over nothing = %+v", comp)
	}
	if comp.Label != LabelStalled {
		t.Errorf("Label = %q, want stalled for an empty set", comp.Label)
	}
}

func TestComputeComposite_Labels(t *testing.T) {
	tests := []struct {
		name   string
		levels []int
		prior  float64
		want   Label
	}{
		{"healthy", []int{2, 2, 3}, -1, LabelHealthy},
		{"stalled", []int{0, 0, 0}, -1, LabelStalled},
		{"uneven", []int{1, 4, 2}, -1, LabelUneven},
		{"regressing beats uneven", []int{1, 4, 2}, 3.5, LabelRegressing},
		{"prior within slack stays healthy", []int{2, 2, 3}, 2.4, LabelHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channels := make([]progression.Channel, len(tt.levels))
			for i, l := range tt.levels {
				channels[i] = progression.Channel{ID: string(rune('a' + i)), CurrentLevel: l, TotalEvents: 1}
			}
			if got := ComputeComposite(channels, tt.prior).Label; got != tt.want {
				t.Errorf("Label = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComputeComposite_ChannelsAtMax(t *testing.T) {
	channels := []progression.Channel{
		startedChannel("a", progression.MaxLevel, testNow),
		startedChannel("b", 2, testNow),
	}
	if got := ComputeComposite(channels, -1).ChannelsAtMax; got != 1 {
		t.Errorf("ChannelsAtMax = %d, want 1", got)
	}
}

func TestComputeComposite_LeadingTieBreak(t *testing.T) {
	channels := []progression.Channel{
		startedChannel("older", 3, testNow.AddDate(0, 0, -20)),
		startedChannel("newer", 3, testNow.AddDate(0, 0, -1)),
	}
	if got := ComputeComposite(channels, -1).Leading; got != "newer" {
		t.Errorf("Leading = %q, want the most recently advanced", got)
	}
}
