package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-hub/migrations"
)

type sample struct {
	Name  string
	Count int
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "store.db"),
		WALMode:     true,
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return New(db.DB)
}

func TestSaveAndGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	s.Register("sample")

	if err := s.Save(ctx, "sample", sample{Name: "a", Count: 1}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var got sample
	if err := s.Get(ctx, "sample", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != (sample{Name: "a", Count: 1}) {
		t.Errorf("Get() = %+v", got)
	}
}

func TestSaveReplaces(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	s.Register("sample")

	for i := 1; i <= 3; i++ {
		if err := s.Save(ctx, "sample", sample{Name: "v", Count: i}); err != nil {
			t.Fatalf("Save(%d) error = %v", i, err)
		}
	}

	var got sample
	if err := s.Get(ctx, "sample", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Count != 3 {
		t.Errorf("Count = %d, want 3", got.Count)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestErrors(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	s.Register("sample")

	var v sample
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"get unregistered", s.Get(ctx, "other", &v), ErrKindNotRegistered},
		{"save unregistered", s.Save(ctx, "other", v), ErrKindNotRegistered},
		{"get missing", s.Get(ctx, "sample", &v), ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

func TestExists(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	s.Register("sample")

	ok, err := s.Exists(ctx, "sample")
	if err != nil || ok {
		t.Fatalf("Exists() before save = %v, %v", ok, err)
	}
	if err := s.Save(ctx, "sample", sample{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	ok, err = s.Exists(ctx, "sample")
	if err != nil || !ok {
		t.Errorf("Exists() after save = %v, %v", ok, err)
	}
}
