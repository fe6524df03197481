// Package aggregate provides the read-only cross-channel views: cascade
// detection and the composite score. Both consume one consistent snapshot of
// a user's full channel set and never mutate a channel.
package aggregate

import (
	"sort"

	"github.com/veilborne/strata/internal/progression"
)

// DefaultCascadeThreshold is the channel count at one level that flags a
// cascade when configuration leaves it zero.
const DefaultCascadeThreshold = 3

// DetectCascades returns the levels at which at least threshold channels
// currently sit, sorted ascending. The result is invariant to channel
// order. Suspended channels count at their frozen level; level 0 never
// cascades, a pile of unstarted channels is not a cross-channel effect.
func DetectCascades(channels []progression.Channel, threshold int) []int {
	if threshold <= 0 {
		threshold = DefaultCascadeThreshold
	}

	counts := make(map[int]int)
	for _, c := range channels {
		if c.CurrentLevel > 0 {
			counts[c.CurrentLevel]++
		}
	}

	var levels []int
	for level, n := range counts {
		if n >= threshold {
			levels = append(levels, level)
		}
	}
	sort.Ints(levels)
	return levels
}
