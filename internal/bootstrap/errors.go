package bootstrap

import "errors"

// Errors reported in Result.Err when bootstrap ends Degraded.
//
//	res := auth.Run(ctx)
//	if errors.Is(res.Err, bootstrap.ErrLoginFailed) {
//	    // stored identity credentials were refused
//	}
var (
	// ErrPairingFailed is returned when an unpaired device could not pair.
	ErrPairingFailed = errors.New("bootstrap: pairing failed")

	// ErrLoginFailed is returned when login with identity credentials failed.
	ErrLoginFailed = errors.New("bootstrap: login failed")

	// ErrBrokerCredentialsUnavailable is returned when no transport
	// credentials could be fetched for the session.
	ErrBrokerCredentialsUnavailable = errors.New("bootstrap: broker credentials unavailable")

	// ErrStorage is returned when the credential store could not be read or written.
	ErrStorage = errors.New("bootstrap: credential storage failed")
)
