// Package classify maps raw logged responses onto the fixed response
// taxonomy used as evidence for or against channel advancement.
package classify

import (
	"fmt"
	"strings"
)

// Classification categorizes a single logged response.
type Classification string

const (
	// Positive counts toward the compliance rate and clears any
	// running negative streak.
	Positive Classification = "positive"

	// Neutral is logged but affects no streak or rate numerator.
	Neutral Classification = "neutral"

	// Negative extends the consecutive-negative streak.
	Negative Classification = "negative"

	// Callout is an explicit confrontation. It extends the streak and
	// selects the harshest recovery when a streak triggers.
	Callout Classification = "callout"

	// NoReaction records that the response drew no reaction at all.
	NoReaction Classification = "no_reaction"
)

// All returns every valid classification in severity order.
func All() []Classification {
	return []Classification{Positive, Neutral, Negative, Callout, NoReaction}
}

// aliases maps alternative spellings to canonical classifications.
var aliases = map[string]Classification{
	// Canonical names
	"positive":    Positive,
	"neutral":     Neutral,
	"negative":    Negative,
	"callout":     Callout,
	"no_reaction": NoReaction,

	// Aliases with hyphen or space
	"no-reaction": NoReaction,
	"no reaction": NoReaction,
	"noreaction":  NoReaction,

	// Semantic aliases
	"call-out": Callout,
	"call out": Callout,
	"ignored":  NoReaction,
	"hostile":  Negative,
}

// Parse normalizes raw input to a canonical classification.
// Unrecognized input is an error, never a silent default: misreading a
// callout as neutral would suppress the recovery it should trigger.
func Parse(raw string) (Classification, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if c, ok := aliases[normalized]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownClassification, raw)
}

// IsValid returns true if c is a recognized canonical classification.
func (c Classification) IsValid() bool {
	parsed, err := Parse(string(c))
	return err == nil && parsed == c
}

// IsPositive reports whether c clears the negative streak.
func (c Classification) IsPositive() bool {
	return c == Positive
}

// IsNegative reports whether c extends the negative streak.
func (c Classification) IsNegative() bool {
	return c == Negative || c == Callout
}
