package rating

import "errors"

// Sentinel errors for the rating engine.
var (
	ErrInvalidWeights  = errors.New("invalid weight vector")
	ErrInvalidSnapshot = errors.New("invalid rating snapshot")
)
