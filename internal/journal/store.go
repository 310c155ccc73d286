package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tally/internal/config"
)

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "journal.db"))
}

// OpenPath opens the journal database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location on disk.
func (s *Store) Path() string {
	return s.path
}

const runColumns = "id, participant, interview_type, status, warning_count, error_message, created_at, updated_at"

// Begin records a new pending run for a participant and interview type.
func (s *Store) Begin(ctx context.Context, participant, interviewType string) (*Run, error) {
	now := time.Now().UTC()
	run := &Run{
		ID:            uuid.NewString(),
		Participant:   participant,
		InterviewType: interviewType,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO unit_runs (id, participant, interview_type, status, warning_count, error_message, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Participant,
		run.InterviewType,
		run.Status,
		run.WarningCount,
		nullableString(run.ErrorMessage),
		run.CreatedAt.Format(time.RFC3339Nano),
		run.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// SetStatus advances a run to the given lifecycle status.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE unit_runs SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// MarkCompleted finishes a run and records how many warnings it emitted.
func (s *Store) MarkCompleted(ctx context.Context, id string, warningCount int) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE unit_runs SET status = ?, warning_count = ?, updated_at = ? WHERE id = ?`,
		StatusCompleted,
		warningCount,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// MarkFailed finishes a run with an error message.
func (s *Store) MarkFailed(ctx context.Context, id string, message string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE unit_runs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		StatusFailed,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// GetByID fetches a run by identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM unit_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Recent returns the most recently created runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM unit_runs ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

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

// History returns the runs for one participant and interview type, newest first.
func (s *Store) History(ctx context.Context, participant, interviewType string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM unit_runs
         WHERE participant = ? AND interview_type = ?
         ORDER BY created_at DESC, id LIMIT ?`,
		participant,
		interviewType,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query run history: %w", err)
	}
	defer rows.Close()

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

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id            string
		participant   string
		interviewType string
		statusStr     string
		warningCount  sql.NullInt64
		errorMessage  sql.NullString
		createdRaw    string
		updatedRaw    string
	)
	if err := scanner.Scan(
		&id,
		&participant,
		&interviewType,
		&statusStr,
		&warningCount,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:            id,
		Participant:   participant,
		InterviewType: interviewType,
		Status:        Status(statusStr),
		WarningCount:  int(warningCount.Int64),
		ErrorMessage:  errorMessage.String,
	}
	run.CreatedAt = parseTimestamp(createdRaw)
	run.UpdatedAt = parseTimestamp(updatedRaw)
	return run, nil
}

func parseTimestamp(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
