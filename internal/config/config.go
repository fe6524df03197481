// Package config loads and validates the engine configuration file.
// Configuration is data the engine consumes, never defines: the channel set,
// per-level gating rules, recovery policy, tier table, and cascade threshold
// all live here so the same engine serves every channel identically.
//
// Validation is fail-fast: a malformed rule or a non-monotonic tier table is
// rejected at load time, never surfaced mid-evaluation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veilborne/strata/internal/engine"
	"github.com/veilborne/strata/internal/progression"
	"github.com/veilborne/strata/internal/tier"
)

// Version is the config file version this loader accepts.
const Version = 1

// ChannelGroup names which subsystem instance a channel belongs to.
type ChannelGroup string

const (
	// GroupLadder channels track the content ladder.
	GroupLadder ChannelGroup = "ladder"

	// GroupDomain channels track the behavior domains.
	GroupDomain ChannelGroup = "domain"
)

// ChannelDef declares one channel in the fixed set. Channels are never
// created or destroyed at runtime; this list is the whole universe.
type ChannelDef struct {
	ID    string       `yaml:"id" json:"id"`
	Group ChannelGroup `yaml:"group" json:"group"`
	Label string       `yaml:"label,omitempty" json:"label,omitempty"`
}

// GatingRule is one per-level gate as written in the file.
type GatingRule struct {
	Level            int `yaml:"level"`
	progression.Rule `yaml:",inline"`
}

// RecoveryPolicy is the recovery section as written in the file, with
// cooldowns in whole days.
type RecoveryPolicy struct {
	Threshold           int `yaml:"threshold"`
	PartialCooldownDays int `yaml:"partial_cooldown_days"`
	FullCooldownDays    int `yaml:"full_cooldown_days"`
}

// File is the top-level structure of a strata.yaml configuration file.
type File struct {
	Version          int            `yaml:"version"`
	Channels         []ChannelDef   `yaml:"channels"`
	CascadeThreshold int            `yaml:"cascade_threshold"`
	Gating           []GatingRule   `yaml:"gating"`
	Recovery         RecoveryPolicy `yaml:"recovery"`
	Tiers            tier.Table     `yaml:"tiers"`
}

// ConfigError describes a validation problem with a specific config field.
type ConfigError struct {
	Section string
	Field   string
	Message string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("config section %q field %q: %s", e.Section, e.Field, e.Message)
}

// Load reads and validates a configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks the whole file. The tier table delegates to its own
// validator so table defects carry their sentinel errors.
func (f *File) Validate() error {
	if f.Version != Version {
		return ConfigError{Section: "version", Field: "version",
			Message: fmt.Sprintf("unsupported version %d, want %d", f.Version, Version)}
	}
	if len(f.Channels) == 0 {
		return ConfigError{Section: "channels", Field: "channels", Message: "must not be empty"}
	}
	seen := make(map[string]bool, len(f.Channels))
	for _, ch := range f.Channels {
		if ch.ID == "" {
			return ConfigError{Section: "channels", Field: "id", Message: "must not be empty"}
		}
		if seen[ch.ID] {
			return ConfigError{Section: "channels", Field: "id",
				Message: fmt.Sprintf("duplicate channel %q", ch.ID)}
		}
		seen[ch.ID] = true
		if ch.Group != GroupLadder && ch.Group != GroupDomain {
			return ConfigError{Section: "channels", Field: "group",
				Message: fmt.Sprintf("channel %q has unknown group %q", ch.ID, ch.Group)}
		}
	}
	if f.CascadeThreshold < 0 {
		return ConfigError{Section: "cascade_threshold", Field: "cascade_threshold",
			Message: "must not be negative"}
	}

	levels := make(map[int]bool, len(f.Gating))
	for _, g := range f.Gating {
		if g.Level < 0 || g.Level >= progression.MaxLevel {
			return ConfigError{Section: "gating", Field: "level",
				Message: fmt.Sprintf("%d outside [0, %d)", g.Level, progression.MaxLevel)}
		}
		if levels[g.Level] {
			return ConfigError{Section: "gating", Field: "level",
				Message: fmt.Sprintf("duplicate rule for level %d", g.Level)}
		}
		levels[g.Level] = true
		if g.MinimumDays < 0 {
			return ConfigError{Section: "gating", Field: "minimum_days",
				Message: fmt.Sprintf("level %d: must not be negative", g.Level)}
		}
		if g.MinimumComplianceRate < 0 || g.MinimumComplianceRate > 1 {
			return ConfigError{Section: "gating", Field: "minimum_compliance_rate",
				Message: fmt.Sprintf("level %d: %.2f outside [0, 1]", g.Level, g.MinimumComplianceRate)}
		}
	}
	if !levels[0] {
		return ConfigError{Section: "gating", Field: "level",
			Message: "missing rule for level 0"}
	}

	if f.Recovery.Threshold < 0 || f.Recovery.PartialCooldownDays < 0 || f.Recovery.FullCooldownDays < 0 {
		return ConfigError{Section: "recovery", Field: "recovery",
			Message: "thresholds and cooldowns must not be negative"}
	}

	if err := f.Tiers.Validate(); err != nil {
		return fmt.Errorf("tiers: %w", err)
	}
	return nil
}

// ChannelIDs returns the configured channel identifiers in file order.
func (f *File) ChannelIDs() []string {
	ids := make([]string, len(f.Channels))
	for i, ch := range f.Channels {
		ids[i] = ch.ID
	}
	return ids
}

// EngineConfig converts the file into the engine's evaluation config.
func (f *File) EngineConfig() engine.Config {
	rules := make(map[int]progression.Rule, len(f.Gating))
	for _, g := range f.Gating {
		rules[g.Level] = g.Rule
	}
	return engine.Config{
		Rules: rules,
		Recovery: progression.Policy{
			Threshold:       f.Recovery.Threshold,
			PartialCooldown: time.Duration(f.Recovery.PartialCooldownDays) * 24 * time.Hour,
			FullCooldown:    time.Duration(f.Recovery.FullCooldownDays) * 24 * time.Hour,
		},
		TierTable:        f.Tiers,
		CascadeThreshold: f.CascadeThreshold,
	}
}
