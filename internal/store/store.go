package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Kind names a record type, e.g. "hume_user".
type Kind string

// Store persists one record per registered Kind.
type Store struct {
	db *sql.DB

	mu    sync.RWMutex
	kinds map[Kind]struct{}

	now func() time.Time
}

// New creates a Store over db. The records table must already exist
// (see the migrations package).
func New(db *sql.DB) *Store {
	return &Store{
		db:    db,
		kinds: make(map[Kind]struct{}),
		now:   time.Now,
	}
}

// Register makes kinds available for Get and Save. Registering a kind twice
// is a no-op.
func (s *Store) Register(kinds ...Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range kinds {
		s.kinds[k] = struct{}{}
	}
}

func (s *Store) checkKind(kind Kind) error {
	s.mu.RLock()
	_, ok := s.kinds[kind]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrKindNotRegistered, kind)
	}
	return nil
}

// Get decodes the record of the given kind into v.
// It returns ErrNotFound if the record has never been saved.
func (s *Store) Get(ctx context.Context, kind Kind, v any) error {
	if err := s.checkKind(kind); err != nil {
		return err
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM records WHERE kind = ?`, string(kind),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, kind)
	}
	if err != nil {
		return fmt.Errorf("reading record %s: %w", kind, err)
	}

	if err := decode(payload, v); err != nil {
		return fmt.Errorf("decoding record %s: %w", kind, err)
	}
	return nil
}

// Save writes v as the record of the given kind, replacing any previous one.
func (s *Store) Save(ctx context.Context, kind Kind, v any) error {
	if err := s.checkKind(kind); err != nil {
		return err
	}

	payload, err := encode(v)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", kind, err)
	}

	const query = `INSERT INTO records (kind, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query,
		string(kind), payload, s.now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("saving record %s: %w", kind, err)
	}
	return nil
}

// Exists reports whether a record of the given kind has been saved.
func (s *Store) Exists(ctx context.Context, kind Kind) (bool, error) {
	if err := s.checkKind(kind); err != nil {
		return false, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE kind = ?`, string(kind),
	).Scan(&n); err != nil {
		return false, fmt.Errorf("checking record %s: %w", kind, err)
	}
	return n > 0, nil
}

// Count returns the number of saved records across all kinds.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}
