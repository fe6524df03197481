package progression

import "fmt"

// ValidationError describes an invariant violation on a stored snapshot.
type ValidationError struct {
	ChannelID string
	Field     string
	Message   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("channel %q field %q: %s", e.ChannelID, e.Field, e.Message)
}

// Validate checks the structural invariants a snapshot must satisfy. The
// aggregate readers call this so one corrupt channel can be excluded without
// poisoning the whole summary.
func (c Channel) Validate() error {
	if c.ID == "" {
		return ValidationError{ChannelID: c.ID, Field: "id", Message: "must not be empty"}
	}
	if c.CurrentLevel < 0 || c.CurrentLevel > MaxLevel {
		return ValidationError{
			ChannelID: c.ID,
			Field:     "current_level",
			Message:   fmt.Sprintf("%d outside [0, %d]", c.CurrentLevel, MaxLevel),
		}
	}
	if c.PositiveEventsAtLevel < 0 || c.TotalEventsAtLevel < c.PositiveEventsAtLevel {
		return ValidationError{
			ChannelID: c.ID,
			Field:     "positive_events_at_level",
			Message:   fmt.Sprintf("%d exceeds total %d", c.PositiveEventsAtLevel, c.TotalEventsAtLevel),
		}
	}
	if c.ConsecutiveNegative < 0 {
		return ValidationError{ChannelID: c.ID, Field: "consecutive_negative", Message: "must not be negative"}
	}
	if c.TotalEvents < c.TotalEventsAtLevel {
		return ValidationError{
			ChannelID: c.ID,
			Field:     "total_events",
			Message:   fmt.Sprintf("%d below per-level count %d", c.TotalEvents, c.TotalEventsAtLevel),
		}
	}
	for i, h := range c.History {
		if h.FromLevel < 0 || h.FromLevel > MaxLevel || h.ToLevel < 0 || h.ToLevel > MaxLevel {
			return ValidationError{
				ChannelID: c.ID,
				Field:     fmt.Sprintf("history[%d]", i),
				Message:   fmt.Sprintf("levels %d->%d outside [0, %d]", h.FromLevel, h.ToLevel, MaxLevel),
			}
		}
	}
	return nil
}
