package tier

import "fmt"

// Sentinel errors for the tier package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrEmptyTable is returned when a tier table has no rows.
	ErrEmptyTable = fmt.Errorf("tier table is empty")

	// ErrNonMonotonicTable is returned when day requirements do not
	// increase strictly down the table.
	ErrNonMonotonicTable = fmt.Errorf("tier table days not strictly increasing")

	// ErrMalformedTable is returned for any other structural defect in a
	// tier table.
	ErrMalformedTable = fmt.Errorf("malformed tier table")
)
