package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/HerbHall/minerwatch/pkg/plugin"
)

func newMemStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var widgetMigrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create widgets",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`)
			return err
		},
	},
	{
		Version:     2,
		Description: "add color",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE widgets ADD COLUMN color TEXT NOT NULL DEFAULT ''`)
			return err
		},
	},
}

func TestMigrate_AppliesOnce(t *testing.T) {
	s := newMemStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.Migrate(ctx, "widgets", widgetMigrations); err != nil {
			t.Fatalf("Migrate pass %d: %v", i, err)
		}
	}

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM _migrations WHERE owner = 'widgets'`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 2 {
		t.Errorf("applied migrations = %d, want 2", n)
	}
	if _, err := s.DB().Exec(`INSERT INTO widgets (name, color) VALUES ('a', 'red')`); err != nil {
		t.Errorf("insert after migrations: %v", err)
	}
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	s := newMemStore(t)
	ctx := context.Background()

	bad := []plugin.Migration{{
		Version:     1,
		Description: "broken",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`CREATE TABLE half (id INTEGER)`); err != nil {
				return err
			}
			return errors.New("boom")
		},
	}}
	if err := s.Migrate(ctx, "bad", bad); err == nil {
		t.Fatal("Migrate() expected error, got nil")
	}

	var n int
	s.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'half'`).Scan(&n)
	if n != 0 {
		t.Error("table from failed migration was not rolled back")
	}
}

func TestNew_FileBackedCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minerwatch.db")
	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
	if err := s.Checkpoint(context.Background()); err != nil {
		t.Errorf("Checkpoint: %v", err)
	}
}
