package devconfig

import "errors"

var (
	// ErrNotFound is returned when a device has no stored configuration.
	ErrNotFound = errors.New("configuration: not found")

	// ErrInvalidDeviceID is returned for a missing or non-string device_id.
	ErrInvalidDeviceID = errors.New("configuration: invalid device_id")

	// ErrInvalidInterval is returned for a missing or non-positive interval.
	ErrInvalidInterval = errors.New("configuration: invalid interval")
)
