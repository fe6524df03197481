package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/veilborne/strata/internal/progression"
	"github.com/veilborne/strata/internal/tier"
)

// Default returns the built-in configuration: ten ladder channels, seven
// behavior domains, the observed gating ladder, and the ten-tier
// consequence table. `strata init` writes this file for editing.
func Default() *File {
	return &File{
		Version: Version,
		Channels: []ChannelDef{
			{ID: "fitness", Group: GroupLadder, Label: "Fitness"},
			{ID: "nutrition", Group: GroupLadder, Label: "Nutrition"},
			{ID: "sleep", Group: GroupLadder, Label: "Sleep"},
			{ID: "focus", Group: GroupLadder, Label: "Deep focus"},
			{ID: "finance", Group: GroupLadder, Label: "Finance"},
			{ID: "social", Group: GroupLadder, Label: "Social"},
			{ID: "media", Group: GroupLadder, Label: "Media diet"},
			{ID: "chores", Group: GroupLadder, Label: "Chores"},
			{ID: "journaling", Group: GroupLadder, Label: "Journaling"},
			{ID: "mindfulness", Group: GroupLadder, Label: "Mindfulness"},

			{ID: "discipline", Group: GroupDomain, Label: "Discipline"},
			{ID: "honesty", Group: GroupDomain, Label: "Honesty"},
			{ID: "patience", Group: GroupDomain, Label: "Patience"},
			{ID: "generosity", Group: GroupDomain, Label: "Generosity"},
			{ID: "courage", Group: GroupDomain, Label: "Courage"},
			{ID: "temperance", Group: GroupDomain, Label: "Temperance"},
			{ID: "humility", Group: GroupDomain, Label: "Humility"},
		},
		CascadeThreshold: 3,
		Gating: []GatingRule{
			{Level: 0, Rule: progression.Rule{MinimumDays: 7, MinimumComplianceRate: 0.8}},
			{Level: 1, Rule: progression.Rule{MinimumDays: 14, MinimumComplianceRate: 0.8}},
			{Level: 2, Rule: progression.Rule{MinimumDays: 21, MinimumComplianceRate: 0.85}},
			{Level: 3, Rule: progression.Rule{MinimumDays: 30, MinimumComplianceRate: 0.85}},
			{Level: 4, Rule: progression.Rule{MinimumDays: 45, MinimumComplianceRate: 0.9}},
		},
		Recovery: RecoveryPolicy{
			Threshold:           2,
			PartialCooldownDays: 7,
			FullCooldownDays:    14,
		},
		Tiers: tier.Table{
			{Tier: 0, DaysRequired: 0, Description: "In good standing"},
			{Tier: 1, DaysRequired: 1, Description: "Gentle reminder"},
			{Tier: 2, DaysRequired: 2, Description: "Firm reminder"},
			{Tier: 3, DaysRequired: 4, Description: "Privilege warning"},
			{Tier: 4, DaysRequired: 7, Description: "Privilege revoked"},
			{Tier: 5, DaysRequired: 10, Description: "Scheduled post, mild", PostsContent: true, VaultTier: 1, MaxVulnerability: 2},
			{Tier: 6, DaysRequired: 14, Description: "Scheduled post, moderate", PostsContent: true, VaultTier: 2, MaxVulnerability: 3},
			{Tier: 7, DaysRequired: 21, Description: "Scheduled post, serious", PostsContent: true, VaultTier: 3, MaxVulnerability: 4},
			{Tier: 8, DaysRequired: 30, Description: "Escalated posting cadence", PostsContent: true, VaultTier: 4, MaxVulnerability: 5},
			{Tier: 9, DaysRequired: 45, Description: "Full consequence schedule", PostsContent: true, VaultTier: 5, MaxVulnerability: 5},
		},
	}
}

// WriteFile marshals the configuration to path. Refuses to clobber an
// existing file; deleting the old config is an explicit operator step.
func (f *File) WriteFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
