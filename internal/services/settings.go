package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/minerwatch/pkg/plugin"
)

// Well-known setting keys.
const (
	// SettingScanRange holds the default CIDR range for new scans.
	SettingScanRange = "scan_range"
)

// Setting represents a key-value configuration entry.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SettingsRepository provides access to application settings.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	GetAll(ctx context.Context) ([]Setting, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Compile-time interface guard.
var _ SettingsRepository = (*SQLiteSettingsRepository)(nil)

// SQLiteSettingsRepository implements SettingsRepository using SQLite.
type SQLiteSettingsRepository struct {
	db *sql.DB
}

// NewSQLiteSettingsRepository creates a SettingsRepository and runs the
// app_settings migration.
func NewSQLiteSettingsRepository(ctx context.Context, store plugin.Store) (*SQLiteSettingsRepository, error) {
	if err := store.Migrate(ctx, "core", settingsMigrations); err != nil {
		return nil, fmt.Errorf("settings migrations: %w", err)
	}
	return &SQLiteSettingsRepository{db: store.DB()}, nil
}

func (r *SQLiteSettingsRepository) Get(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	err := r.db.QueryRowContext(ctx,
		`SELECT key, value, updated_at FROM app_settings WHERE key = ?`, key,
	).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	return &s, nil
}

func (r *SQLiteSettingsRepository) GetAll(ctx context.Context) ([]Setting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM app_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := []Setting{}
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan setting row: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (r *SQLiteSettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteSettingsRepository) Delete(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM app_settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// StringSetting returns the value stored under key, or fallback when the key
// is unset.
func StringSetting(ctx context.Context, repo SettingsRepository, key, fallback string) (string, error) {
	s, err := repo.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return s.Value, nil
}

var settingsMigrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create app_settings table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE app_settings (
					key        TEXT PRIMARY KEY,
					value      TEXT NOT NULL,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`)
			return err
		},
	},
}
