package skills

import "errors"

// ErrMalformedScores is returned when a generated reply is not three integers.
var ErrMalformedScores = errors.New("malformed skill scores")
