package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Timestamps are stored as UTC text, sortable as strings.
const timeLayout = "2006-01-02 15:04:05.999999"

// ErrNotFound is returned when a ledger row does not exist.
var ErrNotFound = errors.New("not found")

// RunStatus is the state of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one invocation of a pipeline task.
type Run struct {
	ID         string
	Task       string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	Error      string
}

// Download is a fetched source file.
type Download struct {
	Path      string
	URL       string
	Bytes     int64
	Checksum  string
	RunID     string
	FetchedAt time.Time
}

// Variant is a written output file. Family groups variants of the same
// asset kind and size, e.g. "card/xs".
type Variant struct {
	Path      string
	Source    string
	Format    string
	Family    string
	Bytes     int64
	RunID     string
	WrittenAt time.Time
}

// SizeSummary aggregates variants per family and format.
type SizeSummary struct {
	Family string
	Format string
	Files  int
	Bytes  int64
}

// Ledger records runs, downloads and variants. It is safe for concurrent use.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// NewLedger creates a ledger on an open database.
func NewLedger(db *DB) *Ledger {
	return &Ledger{db: db.Conn(), now: time.Now}
}

// StartRun inserts a running run for task.
func (l *Ledger) StartRun(ctx context.Context, task string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Task:      task,
		StartedAt: l.now().UTC(),
		Status:    RunRunning,
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, task, started_at, status) VALUES (?, ?, ?, ?)`,
		run.ID, run.Task, formatTime(run.StartedAt), string(run.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	return run, nil
}

// FinishRun marks a run succeeded, or failed when runErr is not nil.
func (l *Ledger) FinishRun(ctx context.Context, id string, runErr error) error {
	status := RunSucceeded
	var message sql.NullString
	if runErr != nil {
		status = RunFailed
		message = sql.NullString{String: runErr.Error(), Valid: true}
	}

	result, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
		formatTime(l.now().UTC()), string(status), message, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetRun returns the run with the given id.
func (l *Ledger) GetRun(ctx context.Context, id string) (*Run, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, task, started_at, finished_at, status, error FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// RecentRuns returns up to limit runs, newest first.
func (l *Ledger) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, task, started_at, finished_at, status, error FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
		status     string
		message    sql.NullString
	)
	if err := s.Scan(&run.ID, &run.Task, &startedAt, &finishedAt, &status, &message); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t, err := parseTime(finishedAt.String)
		if err != nil {
			return nil, err
		}
		run.FinishedAt = &t
	}
	run.Status = RunStatus(status)
	run.Error = message.String
	return &run, nil
}

// RecordDownload stores a download, replacing an earlier row for the same
// path.
func (l *Ledger) RecordDownload(ctx context.Context, d Download) error {
	if d.FetchedAt.IsZero() {
		d.FetchedAt = l.now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO downloads (path, url, bytes, checksum, run_id, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			url = excluded.url,
			bytes = excluded.bytes,
			checksum = excluded.checksum,
			run_id = excluded.run_id,
			fetched_at = excluded.fetched_at`,
		d.Path, d.URL, d.Bytes, d.Checksum, nullString(d.RunID), formatTime(d.FetchedAt.UTC()))
	if err != nil {
		return fmt.Errorf("failed to record download %s: %w", d.Path, err)
	}
	return nil
}

// GetDownload returns the download recorded for path.
func (l *Ledger) GetDownload(ctx context.Context, path string) (*Download, error) {
	var (
		d         Download
		runID     sql.NullString
		fetchedAt string
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT path, url, bytes, checksum, run_id, fetched_at FROM downloads WHERE path = ?`, path).
		Scan(&d.Path, &d.URL, &d.Bytes, &d.Checksum, &runID, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("download %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query download: %w", err)
	}

	d.RunID = runID.String
	if d.FetchedAt, err = parseTime(fetchedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// RecordVariant stores a variant, replacing an earlier row for the same
// path.
func (l *Ledger) RecordVariant(ctx context.Context, v Variant) error {
	if v.WrittenAt.IsZero() {
		v.WrittenAt = l.now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO variants (path, source, format, family, bytes, run_id, written_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			source = excluded.source,
			format = excluded.format,
			family = excluded.family,
			bytes = excluded.bytes,
			run_id = excluded.run_id,
			written_at = excluded.written_at`,
		v.Path, v.Source, v.Format, v.Family, v.Bytes, nullString(v.RunID), formatTime(v.WrittenAt.UTC()))
	if err != nil {
		return fmt.Errorf("failed to record variant %s: %w", v.Path, err)
	}
	return nil
}

// VariantSizes sums variant sizes per family and format.
func (l *Ledger) VariantSizes(ctx context.Context) ([]SizeSummary, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT family, format, COUNT(*), COALESCE(SUM(bytes), 0)
		FROM variants
		GROUP BY family, format
		ORDER BY family, format`)
	if err != nil {
		return nil, fmt.Errorf("failed to query variant sizes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []SizeSummary
	for rows.Next() {
		var s SizeSummary
		if err := rows.Scan(&s.Family, &s.Format, &s.Files, &s.Bytes); err != nil {
			return nil, fmt.Errorf("failed to scan variant sizes: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// DownloadTotals returns the number and total size of recorded downloads.
func (l *Ledger) DownloadTotals(ctx context.Context) (files int, bytes int64, err error) {
	err = l.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(bytes), 0) FROM downloads`).Scan(&files, &bytes)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query download totals: %w", err)
	}
	return files, bytes, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
