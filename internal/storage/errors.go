package storage

import "fmt"

// Sentinel errors for the storage package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrChannelNotFound is returned when no row exists for a channel ID.
	ErrChannelNotFound = fmt.Errorf("channel not found")

	// ErrVersionConflict is returned when a save loses the optimistic
	// version check: another writer committed first and this snapshot is
	// stale. The caller must reload and replay.
	ErrVersionConflict = fmt.Errorf("channel version conflict")

	// ErrEventIDRequired is returned when an event write is attempted
	// without an ID.
	ErrEventIDRequired = fmt.Errorf("event ID is required")
)
