package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 20

// Run is one ledger row.
type Run struct {
	RunID        string
	VideoID      string
	Reference    string
	Status       Status
	Origin       string
	Language     string
	EntryCount   int
	Backend      string
	FailureKind  string
	ErrorMessage string
	TextPath     string
	SRTPath      string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration reports how long the run took.
func (r Run) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

const runColumns = "run_id, video_id, reference, status, origin, language, entry_count, backend, failure_kind, error_message, text_path, srt_path, started_at, finished_at"

// Record inserts run. Recording the same run ID twice replaces the row.
func (s *Store) Record(ctx context.Context, run Run) error {
	if s == nil || s.db == nil {
		return errors.New("history store is not open")
	}
	if strings.TrimSpace(run.RunID) == "" {
		return errors.New("run id is required")
	}
	if run.Status == "" {
		return errors.New("run status is required")
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}
	_, err := s.execWithRetry(ctx,
		`INSERT OR REPLACE INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		nullableString(run.VideoID),
		run.Reference,
		string(run.Status),
		nullableString(run.Origin),
		nullableString(run.Language),
		run.EntryCount,
		nullableString(run.Backend),
		nullableString(run.FailureKind),
		nullableString(run.ErrorMessage),
		nullableString(run.TextPath),
		nullableString(run.SRTPath),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Get fetches a run by ID. A missing run returns nil without error.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	return s.query(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, normalizeLimit(limit))
}

// ListByVideo returns the most recent runs for one video first.
func (s *Store) ListByVideo(ctx context.Context, videoID string, limit int) ([]Run, error) {
	return s.query(ctx,
		`SELECT `+runColumns+` FROM runs WHERE video_id = ? ORDER BY started_at DESC, run_id LIMIT ?`,
		videoID, normalizeLimit(limit),
	)
}

// Clear removes every run and reports how many rows were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		runID        string
		videoID      sql.NullString
		reference    string
		status       string
		origin       sql.NullString
		language     sql.NullString
		entryCount   int
		backend      sql.NullString
		failureKind  sql.NullString
		errorMessage sql.NullString
		textPath     sql.NullString
		srtPath      sql.NullString
		startedRaw   string
		finishedRaw  string
	)
	if err := scanner.Scan(
		&runID,
		&videoID,
		&reference,
		&status,
		&origin,
		&language,
		&entryCount,
		&backend,
		&failureKind,
		&errorMessage,
		&textPath,
		&srtPath,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		RunID:        runID,
		VideoID:      videoID.String,
		Reference:    reference,
		Status:       Status(status),
		Origin:       origin.String,
		Language:     language.String,
		EntryCount:   entryCount,
		Backend:      backend.String,
		FailureKind:  failureKind.String,
		ErrorMessage: errorMessage.String,
		TextPath:     textPath.String,
		SRTPath:      srtPath.String,
	}
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		run.StartedAt = started
	}
	if finished, err := time.Parse(time.RFC3339Nano, finishedRaw); err == nil {
		run.FinishedAt = finished
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
