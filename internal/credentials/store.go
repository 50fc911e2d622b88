package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/store"
)

// Record kinds owned by this package.
const (
	KindHumeUser       store.Kind = "hume_user"
	KindAuthMarker     store.Kind = "auth_marker"
	KindBroker         store.Kind = "broker_credentials"
	KindDeviceIdentity store.Kind = "device_identity"
)

// Store is the typed facade over the record store.
type Store struct {
	records *store.Store
	now     func() time.Time
}

// NewStore registers the credential kinds on records and returns the facade.
func NewStore(records *store.Store) *Store {
	records.Register(KindHumeUser, KindAuthMarker, KindBroker, KindDeviceIdentity)
	return &Store{records: records, now: time.Now}
}

// HumeUser returns the stored identity service credentials.
// ok is false if the device has never been paired.
func (s *Store) HumeUser(ctx context.Context) (Credentials, bool, error) {
	return s.getCredentials(ctx, KindHumeUser, ScopeHumeUser)
}

// Paired reports whether identity service credentials have been stored.
func (s *Store) Paired(ctx context.Context) (bool, error) {
	return s.records.Exists(ctx, KindHumeUser)
}

// SaveHumeUser stores identity service credentials.
func (s *Store) SaveHumeUser(ctx context.Context, c Credentials) error {
	c.Scope = ScopeHumeUser
	return s.records.Save(ctx, KindHumeUser, c)
}

// BrokerCredentials returns the stored message transport credentials.
func (s *Store) BrokerCredentials(ctx context.Context) (Credentials, bool, error) {
	return s.getCredentials(ctx, KindBroker, ScopeBroker)
}

// SaveBrokerCredentials stores message transport credentials.
func (s *Store) SaveBrokerCredentials(ctx context.Context, c Credentials) error {
	c.Scope = ScopeBroker
	return s.records.Save(ctx, KindBroker, c)
}

// RecordLogin overwrites the auth marker with the session just issued.
func (s *Store) RecordLogin(ctx context.Context, sess Session) error {
	return s.records.Save(ctx, KindAuthMarker, AuthMarker{
		SessionID: sess.ID,
		IssuedAt:  s.now().UTC(),
	})
}

// AuthMarker returns the latest login record.
func (s *Store) AuthMarker(ctx context.Context) (AuthMarker, bool, error) {
	var m AuthMarker
	ok, err := s.get(ctx, KindAuthMarker, &m)
	return m, ok, err
}

// DeviceIdentity returns the persisted generated device identity.
func (s *Store) DeviceIdentity(ctx context.Context) (DeviceIdentity, bool, error) {
	var d DeviceIdentity
	ok, err := s.get(ctx, KindDeviceIdentity, &d)
	return d, ok, err
}

// SaveDeviceIdentity persists a generated device identifier.
func (s *Store) SaveDeviceIdentity(ctx context.Context, id string) error {
	return s.records.Save(ctx, KindDeviceIdentity, DeviceIdentity{
		ID:        id,
		CreatedAt: s.now().UTC(),
	})
}

func (s *Store) getCredentials(ctx context.Context, kind store.Kind, scope Scope) (Credentials, bool, error) {
	var c Credentials
	ok, err := s.get(ctx, kind, &c)
	if err != nil || !ok {
		return Credentials{}, ok, err
	}
	// A record without both halves is treated as absent.
	if !c.Valid() {
		return Credentials{}, false, nil
	}
	c.Scope = scope
	return c, true, nil
}

func (s *Store) get(ctx context.Context, kind store.Kind, v any) (bool, error) {
	err := s.records.Get(ctx, kind, v)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", kind, err)
	}
	return true, nil
}
