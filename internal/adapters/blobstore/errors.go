package blobstore

import "errors"

var (
	// ErrNotFound is returned when no blob is stored under a name.
	ErrNotFound = errors.New("blob not found")
	// ErrEmptyName is returned for an empty blob name.
	ErrEmptyName = errors.New("blob name cannot be empty")
	// ErrSerialization is returned when a blob cannot be encoded or decoded.
	ErrSerialization = errors.New("blob serialization failed")
)
