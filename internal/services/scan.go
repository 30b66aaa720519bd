package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HerbHall/minerwatch/pkg/models"
	"github.com/HerbHall/minerwatch/pkg/plugin"
)

// ScanRepository is the scan journal: one row per scan with its range,
// timing, status and counts. Device data is never stored.
type ScanRepository interface {
	Get(ctx context.Context, id string) (*models.ScanRecord, error)

	// List returns a page of scans ordered by start time.
	List(ctx context.Context, opts ListOptions) (*ListResult[models.ScanRecord], error)

	// Create inserts a running scan. Empty ID, StartedAt and Status are
	// filled in.
	Create(ctx context.Context, scan *models.ScanRecord) error

	// Finish records a scan's final status and counts.
	Finish(ctx context.Context, id, status string, total, miners int, errMsg string) error
}

// Compile-time interface guard.
var _ ScanRepository = (*SQLiteScanRepository)(nil)

// SQLiteScanRepository implements ScanRepository on the detect_scans table.
type SQLiteScanRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteScanRepository creates a ScanRepository and runs its migrations.
func NewSQLiteScanRepository(ctx context.Context, store plugin.Store) (*SQLiteScanRepository, error) {
	if err := store.Migrate(ctx, "detect", scanMigrations); err != nil {
		return nil, fmt.Errorf("scan journal migrations: %w", err)
	}
	return &SQLiteScanRepository{db: store.DB(), now: time.Now}, nil
}

const scanColumns = `id, net_range, started_at, ended_at, status, total, miners, error_msg`

func scanRecord(row interface{ Scan(...any) error }) (models.ScanRecord, error) {
	var rec models.ScanRecord
	var endedAt sql.NullString
	err := row.Scan(&rec.ID, &rec.Range, &rec.StartedAt, &endedAt, &rec.Status,
		&rec.Total, &rec.Miners, &rec.Error)
	if endedAt.Valid {
		rec.EndedAt = endedAt.String
	}
	return rec, err
}

func (r *SQLiteScanRepository) Get(ctx context.Context, id string) (*models.ScanRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+scanColumns+` FROM detect_scans WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan %q: %w", id, err)
	}
	return &rec, nil
}

func (r *SQLiteScanRepository) List(ctx context.Context, opts ListOptions) (*ListResult[models.ScanRecord], error) {
	opts = normalizeListOptions(opts)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM detect_scans`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count scans: %w", err)
	}

	orderDir := "DESC"
	if opts.SortOrder == "asc" {
		orderDir = "ASC"
	}
	//nolint:gosec // orderDir is one of two literals
	query := fmt.Sprintf(`SELECT %s FROM detect_scans ORDER BY started_at %s, seq %s LIMIT ? OFFSET ?`,
		scanColumns, orderDir, orderDir)

	rows, err := r.db.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	scans := []models.ScanRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		scans = append(scans, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return &ListResult[models.ScanRecord]{Items: scans, Total: total}, nil
}

func (r *SQLiteScanRepository) Create(ctx context.Context, scan *models.ScanRecord) error {
	if scan.ID == "" {
		scan.ID = uuid.New().String()
	}
	if scan.StartedAt == "" {
		scan.StartedAt = r.now().UTC().Format(time.RFC3339Nano)
	}
	if scan.Status == "" {
		scan.Status = models.ScanStatusRunning
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO detect_scans (id, net_range, started_at, status)
		VALUES (?, ?, ?, ?)`,
		scan.ID, scan.Range, scan.StartedAt, scan.Status,
	)
	if err != nil {
		return fmt.Errorf("create scan: %w", err)
	}
	return nil
}

func (r *SQLiteScanRepository) Finish(ctx context.Context, id, status string, total, miners int, errMsg string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE detect_scans
		SET status = ?, ended_at = ?, total = ?, miners = ?, error_msg = ?
		WHERE id = ?`,
		status, r.now().UTC().Format(time.RFC3339Nano), total, miners, errMsg, id)
	if err != nil {
		return fmt.Errorf("finish scan %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var scanMigrations = []plugin.Migration{
	{
		Version:     1,
		Description: "create detect_scans table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE detect_scans (
					seq        INTEGER PRIMARY KEY AUTOINCREMENT,
					id         TEXT NOT NULL UNIQUE,
					net_range  TEXT NOT NULL,
					started_at TEXT NOT NULL,
					ended_at   TEXT,
					status     TEXT NOT NULL,
					total      INTEGER NOT NULL DEFAULT 0,
					miners     INTEGER NOT NULL DEFAULT 0,
					error_msg  TEXT NOT NULL DEFAULT ''
				)`)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`CREATE INDEX idx_detect_scans_started ON detect_scans(started_at)`)
			return err
		},
	},
}
