package identity

import "errors"

// Sentinel errors for identity service calls.
//
//	if errors.Is(err, identity.ErrRejected) {
//	    // The service answered but refused the request
//	}
var (
	// ErrRejected indicates the service answered with a non-2xx status.
	ErrRejected = errors.New("identity: request rejected")

	// ErrMalformedResponse indicates a 2xx answer whose body could not be used.
	ErrMalformedResponse = errors.New("identity: malformed response")

	// ErrUnreachable indicates the request never got an answer.
	ErrUnreachable = errors.New("identity: service unreachable")
)
