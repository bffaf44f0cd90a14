package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"reshelf/internal/config"
)

// Store persists the organize journal in SQLite. All methods are safe for
// concurrent use; writes retry briefly when the database is busy.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the history database under the configured data directory,
// creating it and applying schema migrations as needed.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
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

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file backing the journal.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Record appends one organize attempt. The operation id and timestamp are
// assigned when the caller leaves them unset; the entry ID is filled in on
// return.
func (s *Store) Record(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry is nil")
	}
	if strings.TrimSpace(entry.Source) == "" {
		return errors.New("entry source is required")
	}
	if entry.Status == "" {
		return errors.New("entry status is required")
	}
	if strings.TrimSpace(entry.OperationID) == "" {
		entry.OperationID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO history (
            operation_id, source, destination, mode, media, title, status, detail, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.OperationID,
		entry.Source,
		nullableString(entry.Destination),
		entry.Mode,
		nullableString(entry.Media),
		nullableString(entry.Title),
		string(entry.Status),
		nullableString(entry.Detail),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("fetch inserted id: %w", err)
	}
	entry.ID = id
	return nil
}

// List returns journal entries newest first, optionally filtered by status.
// A limit of zero or less returns every matching entry.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Entry, error) {
	ctx = ensureContext(ctx)

	query := `SELECT ` + entryColumns + ` FROM history`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Find returns the entry with the given operation id, or nil when absent.
func (s *Store) Find(ctx context.Context, operationID string) (*Entry, error) {
	ctx = ensureContext(ctx)

	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+entryColumns+` FROM history WHERE operation_id = ?`,
		operationID,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Stats counts journal entries grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM history GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("scan stats row: %w", scanErr)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// Clear removes every journal entry and reports how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM history`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

const entryColumns = `id, operation_id, source, destination, mode, media, title, status, detail, created_at`

func scanEntry(row interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry       Entry
		destination sql.NullString
		media       sql.NullString
		title       sql.NullString
		status      string
		detail      sql.NullString
		createdAt   string
	)
	if err := row.Scan(
		&entry.ID,
		&entry.OperationID,
		&entry.Source,
		&destination,
		&entry.Mode,
		&media,
		&title,
		&status,
		&detail,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan history row: %w", err)
	}

	entry.Destination = destination.String
	entry.Media = media.String
	entry.Title = title.String
	entry.Status = Status(status)
	entry.Detail = detail.String
	entry.CreatedAt = parseTimeString(createdAt)
	return &entry, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)

	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func retryOnBusy(ctx context.Context, fn func() error) error {
	backoff := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !isBusyError(lastErr) {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > busyRetryMaxBackoff {
			backoff = busyRetryMaxBackoff
		}
	}
	return lastErr
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) && coded.Code() == 5 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
