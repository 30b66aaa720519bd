package plugin

import (
	"context"
	"database/sql"
)

// Store is the shared relational store handed to plugins.
type Store interface {
	DB() *sql.DB
	Tx(ctx context.Context, fn func(tx *sql.Tx) error) error
	// Migrate applies the named owner's pending migrations in Version order.
	Migrate(ctx context.Context, owner string, migrations []Migration) error
	Close() error
}

// Migration is one forward-only schema step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}
