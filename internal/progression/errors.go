package progression

import "fmt"

// Sentinel errors for the progression package. Using sentinels instead of
// ad-hoc fmt.Errorf allows callers to match with errors.Is for reliable
// error handling.
var (
	// ErrChannelSuspended is returned when a progression-affecting
	// operation is attempted on a suspended channel. Events may still be
	// logged for audit through the storage layer.
	ErrChannelSuspended = fmt.Errorf("channel is suspended")

	// ErrInvalidTransition is returned when a regress targets a level
	// outside the valid range for the channel.
	ErrInvalidTransition = fmt.Errorf("invalid level transition")

	// ErrAdvancementBlocked is returned when Advance is called while the
	// gate would refuse it. Advance re-checks and fails closed rather
	// than trusting the caller.
	ErrAdvancementBlocked = fmt.Errorf("advancement blocked")

	// ErrChannelMismatch is returned when an event is recorded against a
	// channel other than the one it names.
	ErrChannelMismatch = fmt.Errorf("event channel mismatch")
)
