package aggregate

import (
	"github.com/veilborne/strata/internal/progression"
)

// Label summarizes the overall shape of a user's progression.
type Label string

const (
	// LabelHealthy means progression is even and moving.
	LabelHealthy Label = "healthy"

	// LabelUneven means the spread between leading and lagging channels
	// is wide.
	LabelUneven Label = "uneven"

	// LabelStalled means the average level has not cleared 1.
	LabelStalled Label = "stalled"

	// LabelRegressing means the average dropped against the prior
	// period's average.
	LabelRegressing Label = "regressing"
)

// regressionSlack is how far the average must fall below the prior average
// before the set reads as regressing.
const regressionSlack = 0.25

// Composite is the aggregate statistics over one user's channel set.
type Composite struct {
	// Average is the mean level over channels at level >= 1.
	Average float64 `json:"average"`

	// Leading is the ID of the highest-level started channel; ties break
	// by most recent advancement.
	Leading string `json:"leading,omitempty"`

	// Lagging is the ID of the lowest-level started channel; ties break
	// by most recent advancement.
	Lagging string `json:"lagging,omitempty"`

	// WidestGap is leading level minus lagging level.
	WidestGap int `json:"widest_gap"`

	// ChannelsStarted counts channels with any activity at all.
	ChannelsStarted int `json:"channels_started"`

	// ChannelsAtMax counts channels at MaxLevel.
	ChannelsAtMax int `json:"channels_at_max"`

	// Label is the derived overall assessment.
	Label Label `json:"label"`
}

// ComputeComposite aggregates the channel set. priorAverage is the average
// from a previous summary for regression detection; pass a negative value
// when no prior period exists.
//
// Unstarted channels are excluded from the average but count in
// ChannelsStarted once they have any logged event. Leading and lagging are
// selected among started channels.
func ComputeComposite(channels []progression.Channel, priorAverage float64) Composite {
	var comp Composite

	var levelSum, leveled int
	var leading, lagging *progression.Channel
	for i := range channels {
		c := &channels[i]
		if !c.Started() {
			continue
		}
		comp.ChannelsStarted++
		if c.CurrentLevel >= progression.MaxLevel {
			comp.ChannelsAtMax++
		}
		if c.CurrentLevel > 0 {
			levelSum += c.CurrentLevel
			leveled++
		}
		if leading == nil || outranks(c, leading) {
			leading = c
		}
		if lagging == nil || lagsBehind(c, lagging) {
			lagging = c
		}
	}

	if leveled > 0 {
		comp.Average = float64(levelSum) / float64(leveled)
	}
	if leading != nil {
		comp.Leading = leading.ID
		comp.Lagging = lagging.ID
		comp.WidestGap = leading.CurrentLevel - lagging.CurrentLevel
	}

	comp.Label = deriveLabel(comp, priorAverage)
	return comp
}

// outranks reports whether a should be preferred over b for the leading
// slot: higher level first, then most recently advanced, then channel ID
// for a deterministic final tie-break.
func outranks(a, b *progression.Channel) bool {
	if a.CurrentLevel != b.CurrentLevel {
		return a.CurrentLevel > b.CurrentLevel
	}
	aAt, bAt := a.LastAdvancedAt(), b.LastAdvancedAt()
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return a.ID < b.ID
}

// lagsBehind reports whether a should be preferred over b for the lagging
// slot: lower level first, then most recently advanced, then channel ID.
func lagsBehind(a, b *progression.Channel) bool {
	if a.CurrentLevel != b.CurrentLevel {
		return a.CurrentLevel < b.CurrentLevel
	}
	aAt, bAt := a.LastAdvancedAt(), b.LastAdvancedAt()
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return a.ID < b.ID
}

func deriveLabel(comp Composite, priorAverage float64) Label {
	switch {
	case priorAverage >= 0 && comp.Average < priorAverage-regressionSlack:
		return LabelRegressing
	case comp.Average < 1:
		return LabelStalled
	case comp.WidestGap >= 3:
		return LabelUneven
	default:
		return LabelHealthy
	}
}
