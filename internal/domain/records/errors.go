package records

import "errors"

// Sentinel errors for CSV extraction.
var (
	ErrEmptyInput     = errors.New("empty input")
	ErrMissingColumns = errors.New("missing required columns")
	ErrInvalidValue   = errors.New("invalid value")
)
