package broker

import "errors"

// Domain errors for the broker package.
var (
	// ErrNotRunning is returned when publishing before Start or after Stop.
	ErrNotRunning = errors.New("broker: not running")

	// ErrStopped is returned when starting or subscribing after Stop.
	ErrStopped = errors.New("broker: stopped")

	// ErrDuplicateSubscription is returned when a subscriber name is already
	// registered on a topic.
	ErrDuplicateSubscription = errors.New("broker: duplicate subscription")

	// ErrInvalidSubscription is returned for an empty topic, name or nil handler.
	ErrInvalidSubscription = errors.New("broker: invalid subscription")
)
