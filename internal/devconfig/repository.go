package devconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository persists device configurations.
type Repository interface {
	Get(ctx context.Context, deviceID string) (*Configuration, error)
	Save(ctx context.Context, cfg *Configuration) error
	List(ctx context.Context) ([]Configuration, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed configuration repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns the configuration for deviceID or ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, deviceID string) (*Configuration, error) {
	const query = `SELECT device_id, interval, updated_at FROM device_configurations WHERE device_id = ?`

	cfg, err := scanConfiguration(r.db.QueryRowContext(ctx, query, deviceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying configuration %s: %w", deviceID, err)
	}
	return cfg, nil
}

// Save inserts or replaces the configuration. UpdatedAt is set on cfg.
func (r *SQLiteRepository) Save(ctx context.Context, cfg *Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.UpdatedAt = time.Now().UTC()

	const query = `INSERT INTO device_configurations (device_id, interval, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET interval = excluded.interval, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query,
		cfg.DeviceID, cfg.Interval, cfg.UpdatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("saving configuration %s: %w", cfg.DeviceID, err)
	}
	return nil
}

// List returns all stored configurations ordered by device ID.
func (r *SQLiteRepository) List(ctx context.Context) ([]Configuration, error) {
	const query = `SELECT device_id, interval, updated_at FROM device_configurations ORDER BY device_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying configurations: %w", err)
	}
	defer rows.Close()

	var out []Configuration
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning configuration: %w", err)
		}
		out = append(out, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating configurations: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConfiguration(s scanner) (*Configuration, error) {
	var (
		cfg       Configuration
		updatedAt string
	)
	if err := s.Scan(&cfg.DeviceID, &cfg.Interval, &updatedAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	cfg.UpdatedAt = t
	return &cfg, nil
}
