package improvement

import "errors"

// Sentinel errors for the live advisor.
var (
	ErrMalformedReply = errors.New("malformed generated reply")
	ErrInvalidTasks   = errors.New("invalid task count")
)
