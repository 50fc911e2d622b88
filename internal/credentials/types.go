package credentials

import "time"

// Scope says what a credential pair authenticates against.
type Scope string

const (
	// ScopeHumeUser credentials authenticate the device to the identity service.
	ScopeHumeUser Scope = "hume_user"

	// ScopeBroker credentials authenticate the device to the message transport.
	ScopeBroker Scope = "broker"
)

// Credentials is an issued username/password pair. A pair is never edited;
// re-issue replaces it.
type Credentials struct {
	Username string `cbor:"username"`
	Password string `cbor:"password"`
	Scope    Scope  `cbor:"scope"`
}

// Valid reports whether both halves of the pair are present.
func (c Credentials) Valid() bool {
	return c.Username != "" && c.Password != ""
}

// String omits the password so credentials can be logged.
func (c Credentials) String() string {
	return string(c.Scope) + ":" + c.Username
}

// Session is the identity service login session.
type Session struct {
	ID string
}

// AuthMarker records the latest login. It is overwritten on every start.
type AuthMarker struct {
	SessionID string    `cbor:"session_id"`
	IssuedAt  time.Time `cbor:"issued_at"`
}

// DeviceIdentity is the generated device identifier used when none is
// configured.
type DeviceIdentity struct {
	ID        string    `cbor:"id"`
	CreatedAt time.Time `cbor:"created_at"`
}
