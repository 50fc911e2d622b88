package dispatch

import "errors"

var (
	// ErrWrongScope is returned by Start when given non-broker credentials.
	ErrWrongScope = errors.New("dispatch: credentials are not broker scoped")

	// ErrNotStarted is returned when sending before Start or after Stop.
	ErrNotStarted = errors.New("dispatch: not started")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("dispatch: already started")

	// ErrTransport wraps failures to open or use the external transport.
	ErrTransport = errors.New("dispatch: transport failure")

	// ErrInvalidDeviceID is returned for device IDs that cannot name a queue.
	ErrInvalidDeviceID = errors.New("dispatch: invalid device id")

	// ErrEncoding is returned when SendCommand content cannot be encoded.
	ErrEncoding = errors.New("dispatch: encoding failed")
)
