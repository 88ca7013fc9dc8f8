package batch

import "errors"

// Error constants.
var (
	ErrNoDirectory = errors.New("report directory is required")
	ErrNoReports   = errors.New("no csv reports found")
	ErrAllFailed   = errors.New("every report failed")
)
