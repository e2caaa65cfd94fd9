package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested key does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrUnknownKey is returned when a draft key is not one of the known form drafts.
	ErrUnknownKey = errors.New("persistence: unknown key")
)
