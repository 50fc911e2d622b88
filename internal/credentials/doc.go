// Package credentials persists the secrets the hub acquires during
// bootstrap: the identity service user, the latest login marker and the
// delegated message transport credentials. It also keeps the generated
// device identity.
package credentials
