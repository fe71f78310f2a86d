package history

import (
	"database/sql"
	"fmt"

	"snapsync/internal/history/migrations"
	"snapsync/internal/snap"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteHistory records finished import/upload runs in a SQLite database.
type SQLiteHistory struct {
	db *sql.DB
}

// Open opens (creating and migrating as needed) the history database.
// path can be a file path or ":memory:" for tests.
func Open(path string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Concurrent upload jobs record runs on their own goroutines.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}

	return &SQLiteHistory{db: db}, nil
}

// RecordRun inserts one finished run. The run's ID is filled in on return.
func (h *SQLiteHistory) RecordRun(run *snap.Run) error {
	result, err := h.db.Exec(`
		INSERT INTO runs (
			operation, source, start_date, end_date, dry_run, status,
			imported_count, file_count, upload_count, skip_count, total_bytes,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Operation, run.Source, run.StartDate, run.EndDate, run.DryRun, run.Status,
		run.ImportedCount, run.FileCount, run.UploadCount, run.SkipCount, run.TotalBytes,
		run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}
	run.ID = id
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (h *SQLiteHistory) ListRuns(limit int) ([]*snap.Run, error) {
	rows, err := h.db.Query(`
		SELECT id, operation, source, start_date, end_date, dry_run, status,
			imported_count, file_count, upload_count, skip_count, total_bytes,
			started_at, finished_at
		FROM runs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*snap.Run
	for rows.Next() {
		var run snap.Run
		err := rows.Scan(
			&run.ID, &run.Operation, &run.Source, &run.StartDate, &run.EndDate,
			&run.DryRun, &run.Status, &run.ImportedCount, &run.FileCount,
			&run.UploadCount, &run.SkipCount, &run.TotalBytes,
			&run.StartedAt, &run.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Close closes the database connection.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

// Compile-time check that SQLiteHistory implements snap.RunRecorder
var _ snap.RunRecorder = (*SQLiteHistory)(nil)
