package resultstore

import "errors"

// Sentinel kinds for result store errors.
var (
	ErrNotFound = errors.New("entity not found")
)
