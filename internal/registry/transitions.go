package registry

import (
	"context"
	"fmt"
	"time"
)

// RecordSizeChange updates the stored size and resets the stability clock for
// a pending entry. Entries already processing or terminal are never touched.
func (s *Store) RecordSizeChange(ctx context.Context, path string, size int64, changedAt time.Time, message string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE tracked_files
         SET size = ?, last_change_at = ?, message = ?, updated_at = ?
         WHERE path = ? AND status = ?`,
		size,
		changedAt.UTC().Format(time.RFC3339Nano),
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		path,
		StatusPending,
	)
	if err != nil {
		return fmt.Errorf("record size change: %w", err)
	}
	return nil
}

// UpdateMessage refreshes the countdown message on a pending entry.
func (s *Store) UpdateMessage(ctx context.Context, path, message string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE tracked_files SET message = ?, updated_at = ? WHERE path = ? AND status = ?`,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		path,
		StatusPending,
	)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

// MarkProcessing promotes a pending entry to processing. The conditional
// UPDATE is the promotion gate: it succeeds for exactly one caller, so a
// stability tick and a manual request racing on the same entry cannot both
// launch a job. It reports whether this caller won the promotion.
func (s *Store) MarkProcessing(ctx context.Context, path, jobID, message string) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tracked_files
         SET status = ?, message = ?, job_id = ?, error_message = NULL, updated_at = ?
         WHERE path = ? AND status = ?`,
		StatusProcessing,
		nullableString(message),
		nullableString(jobID),
		time.Now().UTC().Format(time.RFC3339Nano),
		path,
		StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("promote %s: %w", path, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

// MarkCompleted finishes a processing entry successfully.
func (s *Store) MarkCompleted(ctx context.Context, path string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tracked_files
         SET status = ?, message = ?, updated_at = ?
         WHERE path = ? AND status = ?`,
		StatusCompleted,
		"Completed",
		time.Now().UTC().Format(time.RFC3339Nano),
		path,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("complete %s: %w", path, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("complete %s: entry not in processing state", path)
	}
	return nil
}

// MarkErrored finishes a processing entry with a failure description.
func (s *Store) MarkErrored(ctx context.Context, path, errorMessage string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tracked_files
         SET status = ?, message = ?, error_message = ?, updated_at = ?
         WHERE path = ? AND status = ?`,
		StatusErrored,
		"Error",
		nullableString(errorMessage),
		time.Now().UTC().Format(time.RFC3339Nano),
		path,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("mark errored %s: %w", path, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("mark errored %s: entry not in processing state", path)
	}
	return nil
}

// ResetStuckProcessing returns entries stuck in processing back to pending.
// Jobs do not survive a daemon restart, so rows left in processing by a
// previous run are re-evaluated from scratch; the stability clock restarts
// from the reset time.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tracked_files
         SET status = ?, message = 'Reset after restart', job_id = NULL,
             last_change_at = ?, updated_at = ?
         WHERE status = ?`,
		StatusPending,
		now,
		now,
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck entries: %w", err)
	}
	return res.RowsAffected()
}
