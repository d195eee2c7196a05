// Package state keeps local run state in a sqlite database: a run
// history for the history command and, when the local backend is
// selected, the sync watermark itself.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const watermarkKey = "watermark"

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Run is one recorded sync pass.
type Run struct {
	ID        int64
	StartedAt time.Time
	Fetched   int
	Published int
	Skipped   int
	Failed    int
	Watermark int64
	Advanced  bool
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	ctx := context.Background()
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Watermark reads the locally stored watermark. A fresh database has
// none.
func (s *Store) Watermark(ctx context.Context) (int64, bool, error) {
	if s == nil || s.db == nil {
		return 0, false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", watermarkKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read watermark: %w", err)
	}

	ts, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse watermark %q: %w", value, err)
	}
	return ts, true, nil
}

// SetWatermark writes the locally stored watermark.
func (s *Store) SetWatermark(ctx context.Context, ts int64) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, watermarkKey, strconv.FormatInt(ts, 10))
	if err != nil {
		return fmt.Errorf("write watermark: %w", err)
	}
	return nil
}

// RecordRun appends one run to the history.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if run.StartedAt.IsZero() {
		return errors.New("started_at is required")
	}

	var watermarkVal sql.NullInt64
	if run.Advanced {
		watermarkVal = sql.NullInt64{Int64: run.Watermark, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (started_at, fetched, published, skipped, failed, watermark)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Fetched,
		run.Published,
		run.Skipped,
		run.Failed,
		watermarkVal,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, fetched, published, skipped, failed, watermark
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			run          Run
			startedAt    string
			watermarkVal sql.NullInt64
		)
		if err := rows.Scan(&run.ID, &startedAt, &run.Fetched, &run.Published, &run.Skipped, &run.Failed, &watermarkVal); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if watermarkVal.Valid {
			run.Watermark = watermarkVal.Int64
			run.Advanced = true
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}
