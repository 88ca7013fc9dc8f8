package prediction

import "errors"

var (
	// ErrNotFitted is returned when a Predictor is used before Fit.
	ErrNotFitted = errors.New("predictor not fitted")
	// ErrEmptyTraining is returned when Fit receives no rows.
	ErrEmptyTraining = errors.New("empty training set")
	// ErrDimension is returned when a feature vector has the wrong length.
	ErrDimension = errors.New("feature dimension mismatch")
	// ErrUnknownTimeline is returned for a timeline code outside the fixed set.
	ErrUnknownTimeline = errors.New("unknown timeline")
)
