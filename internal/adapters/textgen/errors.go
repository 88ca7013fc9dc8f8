package textgen

import "errors"

var (
	// ErrUnexpectedStatus is returned for any non-200 reply.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrEmptyReply is returned when the reply carries no choices.
	ErrEmptyReply = errors.New("empty reply")
)
