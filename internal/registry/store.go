package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"txrmwatch/internal/config"
)

// Store manages tracked-file persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the registry database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.RegistryPath()
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
	if err := store.initSchema(context.Background()); err != nil {
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

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Track creates an entry for path if none exists, seeded with the observed
// size and change time and a pending status. It reports whether a new entry
// was created; an existing entry is left untouched so rescans are idempotent.
func (s *Store) Track(ctx context.Context, path string, size int64, observedAt time.Time, message string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, errors.New("path is empty")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO tracked_files (path, size, last_change_at, status, message, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(path) DO NOTHING`,
		path,
		size,
		observedAt.UTC().Format(time.RFC3339Nano),
		StatusPending,
		nullableString(message),
		now,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("track %s: %w", path, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Get fetches a tracked entry by path. It returns nil when the path is not tracked.
func (s *Store) Get(ctx context.Context, path string) (*TrackedFile, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+fileColumns+` FROM tracked_files WHERE path = ?`, path)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return file, nil
}

// Paths returns every tracked path.
func (s *Store) Paths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT path FROM tracked_files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// Snapshot returns a consistent copy of every tracked entry ordered by path.
func (s *Store) Snapshot(ctx context.Context) ([]*TrackedFile, error) {
	return s.query(ctx, `SELECT `+fileColumns+` FROM tracked_files ORDER BY path`)
}

// Pending returns the entries eligible for stability evaluation, ordered by path.
func (s *Store) Pending(ctx context.Context) ([]*TrackedFile, error) {
	return s.query(ctx, `SELECT `+fileColumns+` FROM tracked_files WHERE status = ? ORDER BY path`, StatusPending)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*TrackedFile, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracked files: %w", err)
	}
	defer rows.Close()

	var files []*TrackedFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// Remove deletes an entry by path, reporting whether it existed.
func (s *Store) Remove(ctx context.Context, path string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM tracked_files WHERE path = ?`, path)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of entries grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM tracked_files GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("registry stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates entry counts for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusProcessing:
			health.Processing += count
		case StatusCompleted:
			health.Completed += count
		case StatusErrored:
			health.Errored += count
		}
	}
	return health, nil
}

const fileColumns = "path, size, last_change_at, status, message, error_message, job_id, created_at, updated_at"

func scanFile(scanner interface{ Scan(dest ...any) error }) (*TrackedFile, error) {
	var (
		path         string
		size         int64
		lastChange   sql.NullString
		statusStr    string
		message      sql.NullString
		errorMessage sql.NullString
		jobID        sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&path,
		&size,
		&lastChange,
		&statusStr,
		&message,
		&errorMessage,
		&jobID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	file := &TrackedFile{
		Path:         path,
		Size:         size,
		Status:       Status(statusStr),
		Message:      message.String,
		ErrorMessage: errorMessage.String,
		JobID:        jobID.String,
	}
	var parseErr error
	if file.LastChangeAt, parseErr = parseTimeString(lastChange.String); parseErr != nil {
		return nil, fmt.Errorf("parse last_change_at for %s: %w", path, parseErr)
	}
	if file.CreatedAt, parseErr = parseTimeString(createdRaw.String); parseErr != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", path, parseErr)
	}
	if file.UpdatedAt, parseErr = parseTimeString(updatedRaw.String); parseErr != nil {
		return nil, fmt.Errorf("parse updated_at for %s: %w", path, parseErr)
	}
	return file, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	return time.Parse(time.RFC3339Nano, value)
}
