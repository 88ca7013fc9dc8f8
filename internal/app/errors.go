package service

import "errors"

// Sentinel errors returned by Service operations.
var (
	ErrNotStarted = errors.New("service not started")
	ErrEmptyID    = errors.New("student id cannot be empty")
)
