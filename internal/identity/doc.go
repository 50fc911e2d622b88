// Package identity is the HTTP client for the remote pairing and identity
// service.
//
// The service issues three things, in order: identity credentials for a
// newly paired device (POST /pair), a login session for those credentials
// (POST /login) and message transport credentials delegated to that session
// (GET /broker-credentials). Any non-2xx status or unusable body is an error;
// the caller decides how to degrade.
package identity
