package store

import "errors"

var (
	// ErrKindNotRegistered is returned when a record kind was not registered.
	ErrKindNotRegistered = errors.New("record kind not registered")

	// ErrNotFound is returned when no record of the kind has been saved.
	ErrNotFound = errors.New("record not found")
)
