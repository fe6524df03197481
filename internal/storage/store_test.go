package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/veilborne/strata/internal/classify"
	"github.com/veilborne/strata/internal/progression"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "strata.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSeedChannels_Idempotent(t *testing.T) {
	s := testStore(t)
	ids := []string{"fitness", "media"}
	if err := s.SeedChannels(ids); err != nil {
		t.Fatalf("SeedChannels: %v", err)
	}

	// Mutate one channel, re-seed, and confirm progression survives.
	ch, version, err := s.Channel("fitness")
	if err != nil {
		t.Fatalf("Channel: %v", err)
	}
	ch.CurrentLevel = 2
	if err := s.SaveChannel(ch, version); err != nil {
		t.Fatalf("SaveChannel: %v", err)
	}
	if err := s.SeedChannels(ids); err != nil {
		t.Fatalf("re-seed: %v", err)
	}

	ch, _, err = s.Channel("fitness")
	if err != nil {
		t.Fatalf("Channel after re-seed: %v", err)
	}
	if ch.CurrentLevel != 2 {
		t.Errorf("CurrentLevel = %d after re-seed, want 2", ch.CurrentLevel)
	}
}

func TestChannel_RoundTrip(t *testing.T) {
	s := testStore(t)
	if err := s.SeedChannels([]string{"fitness"}); err != nil {
		t.Fatalf("SeedChannels: %v", err)
	}

	ch, version, err := s.Channel("fitness")
	if err != nil {
		t.Fatalf("Channel: %v", err)
	}
	ch.CurrentLevel = 3
	ch.TotalEventsAtLevel = 4
	ch.Milestones = map[string]float64{"deep_hours": 2.5}
	ch.History = []progression.HistoryEntry{{
		ID: "h1", Date: testNow, FromLevel: 2, ToLevel: 3,
		Trigger: progression.TriggerAdvancement,
	}}
	if err := s.SaveChannel(ch, version); err != nil {
		t.Fatalf("SaveChannel: %v", err)
	}

	got, gotVersion, err := s.Channel("fitness")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if gotVersion != version+1 {
		t.Errorf("version = %d, want %d", gotVersion, version+1)
	}
	if got.CurrentLevel != 3 || got.TotalEventsAtLevel != 4 {
		t.Errorf("snapshot = %+v", got)
	}
	if got.Milestones["deep_hours"] != 2.5 {
		t.Errorf("Milestones = %v", got.Milestones)
	}
	if len(got.History) != 1 || got.History[0].Trigger != progression.TriggerAdvancement {
		t.Errorf("History = %+v", got.History)
	}
}

func TestChannel_NotFound(t *testing.T) {
	s := testStore(t)
	if _, _, err := s.Channel("missing"); !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("error = %v, want ErrChannelNotFound", err)
	}
	if err := s.SaveChannel(progression.Channel{ID: "missing"}, 0); !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("save error = %v, want ErrChannelNotFound", err)
	}
}

// Two writers loading the same version: the second save must lose with
// ErrVersionConflict instead of silently erasing the first writer's
// history entry.
func TestSaveChannel_VersionConflict(t *testing.T) {
	s := testStore(t)
	if err := s.SeedChannels([]string{"fitness"}); err != nil {
		t.Fatalf("SeedChannels: %v", err)
	}

	first, version, err := s.Channel("fitness")
	if err != nil {
		t.Fatalf("Channel: %v", err)
	}
	second := first

	first.CurrentLevel = 1
	if err := s.SaveChannel(first, version); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second.CurrentLevel = 2
	if err := s.SaveChannel(second, version); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("second save error = %v, want ErrVersionConflict", err)
	}

	got, _, err := s.Channel("fitness")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.CurrentLevel != 1 {
		t.Errorf("CurrentLevel = %d, want the first writer's 1", got.CurrentLevel)
	}
}

func TestChannels_All(t *testing.T) {
	s := testStore(t)
	if err := s.SeedChannels([]string{"b", "a", "c"}); err != nil {
		t.Fatalf("SeedChannels: %v", err)
	}
	channels, err := s.Channels()
	if err != nil {
		t.Fatalf("Channels: %v", err)
	}
	if len(channels) != 3 {
		t.Fatalf("got %d channels, want 3", len(channels))
	}
	if channels[0].ID != "a" {
		t.Errorf("channels[0].ID = %q, want a", channels[0].ID)
	}
}

func TestLogEvent_AndList(t *testing.T) {
	s := testStore(t)
	ev := progression.Event{
		ID:             "ev-1",
		ChannelID:      "fitness",
		Timestamp:      testNow,
		Classification: classify.Positive,
		Description:    "morning run",
		ContextTags:    []string{"outdoors"},
		Measurements:   map[string]float64{"km": 5},
	}
	if err := s.LogEvent(ev, false); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
	// Audit path: events against a suspended channel are still kept.
	audit := ev
	audit.ID = "ev-2"
	audit.Timestamp = testNow.Add(time.Hour)
	if err := s.LogEvent(audit, true); err != nil {
		t.Fatalf("LogEvent audit: %v", err)
	}

	events, err := s.Events("fitness", 0)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != "ev-2" {
		t.Errorf("events[0].ID = %q, want newest first", events[0].ID)
	}
	got := events[1]
	if got.Description != "morning run" || got.Classification != classify.Positive {
		t.Errorf("event = %+v", got)
	}
	if len(got.ContextTags) != 1 || got.ContextTags[0] != "outdoors" {
		t.Errorf("ContextTags = %v", got.ContextTags)
	}
	if got.Measurements["km"] != 5 {
		t.Errorf("Measurements = %v", got.Measurements)
	}

	limited, err := s.Events("fitness", 1)
	if err != nil {
		t.Fatalf("Events limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("got %d events with limit 1", len(limited))
	}
}

func TestLogEvent_RequiresID(t *testing.T) {
	s := testStore(t)
	err := s.LogEvent(progression.Event{ChannelID: "fitness"}, false)
	if !errors.Is(err, ErrEventIDRequired) {
		t.Fatalf("error = %v, want ErrEventIDRequired", err)
	}
}

func TestCompliance_RoundTrip(t *testing.T) {
	s := testStore(t)

	// A fresh store reads as the zero state: new user, tier 0.
	state, err := s.Compliance()
	if err != nil {
		t.Fatalf("Compliance: %v", err)
	}
	if !state.LastComplianceAt.IsZero() {
		t.Errorf("LastComplianceAt = %v, want zero", state.LastComplianceAt)
	}

	if err := s.RecordCompliance(testNow); err != nil {
		t.Fatalf("RecordCompliance: %v", err)
	}
	// Last-write-wins: a second stamp just moves the timestamp.
	later := testNow.Add(time.Hour)
	if err := s.RecordCompliance(later); err != nil {
		t.Fatalf("RecordCompliance again: %v", err)
	}

	state, err = s.Compliance()
	if err != nil {
		t.Fatalf("Compliance reload: %v", err)
	}
	if !state.LastComplianceAt.Equal(later) {
		t.Errorf("LastComplianceAt = %v, want %v", state.LastComplianceAt, later)
	}
}

func TestPriorAverage(t *testing.T) {
	s := testStore(t)

	prior, err := s.PriorAverage()
	if err != nil {
		t.Fatalf("PriorAverage: %v", err)
	}
	if prior != -1 {
		t.Errorf("PriorAverage = %v, want -1 with no history", prior)
	}

	if err := s.SaveSummaryAverage(2.2, testNow); err != nil {
		t.Fatalf("SaveSummaryAverage: %v", err)
	}
	if err := s.SaveSummaryAverage(2.6, testNow.Add(time.Hour)); err != nil {
		t.Fatalf("SaveSummaryAverage: %v", err)
	}

	prior, err = s.PriorAverage()
	if err != nil {
		t.Fatalf("PriorAverage reload: %v", err)
	}
	if prior != 2.6 {
		t.Errorf("PriorAverage = %v, want the latest 2.6", prior)
	}
}
