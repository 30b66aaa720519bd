// Package store provides the SQLite-backed plugin.Store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/HerbHall/minerwatch/pkg/plugin"
)

// Compile-time interface guard.
var _ plugin.Store = (*SQLiteStore)(nil)

// pragmas are applied to every new database; modernc.org/sqlite takes them
// as statements rather than DSN parameters.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// SQLiteStore holds the settings table and the scan journal. Device data is
// never written here.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex // serializes migrations
	once sync.Once
	err  error
}

// New opens (or creates) the database at path. ":memory:" gives a
// throwaway in-memory database.
func New(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// One connection: SQLite has a single writer, and an in-memory
	// database exists only on the connection that created it.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// DB returns the underlying *sql.DB.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Path returns the path the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Tx runs fn in a transaction, committing when fn returns nil.
func (s *SQLiteStore) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}
	return tx.Commit()
}

// Migrate applies owner's migrations that are not yet recorded in the
// _migrations table.
func (s *SQLiteStore) Migrate(ctx context.Context, owner string, migrations []plugin.Migration) error {
	s.once.Do(func() {
		_, s.err = s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS _migrations (
				owner       TEXT     NOT NULL,
				version     INTEGER  NOT NULL,
				description TEXT     NOT NULL,
				applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (owner, version)
			)`)
	})
	if s.err != nil {
		return fmt.Errorf("create _migrations: %w", s.err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range migrations {
		var n int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM _migrations WHERE owner = ? AND version = ?`,
			owner, m.Version,
		).Scan(&n); err != nil {
			return fmt.Errorf("check migration %s/%d: %w", owner, m.Version, err)
		}
		if n > 0 {
			continue
		}

		err := s.Tx(ctx, func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO _migrations (owner, version, description) VALUES (?, ?, ?)`,
				owner, m.Version, m.Description)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %s/%d (%s): %w", owner, m.Version, m.Description, err)
		}
	}
	return nil
}

// Checkpoint flushes the WAL into the main database file.
func (s *SQLiteStore) Checkpoint(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
