package classify

import "fmt"

// Sentinel errors for the classify package. Using sentinels instead of ad-hoc
// fmt.Errorf allows callers to match with errors.Is for reliable error handling.
var (
	// ErrUnknownClassification is returned when raw input does not map to
	// any classification in the taxonomy.
	ErrUnknownClassification = fmt.Errorf("unknown classification")
)
