package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"txrmwatch/internal/logging"
	"txrmwatch/internal/registry"
)

// Tick runs one stability-check cycle across all pending entries: re-probe
// each file's size, reset the stability clock on any change, refresh the
// countdown otherwise, and promote entries quiescent for the full window.
// Entries already processing or terminal are not evaluated.
func (m *Manager) Tick(ctx context.Context) error {
	entries, err := m.store.Pending(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		// One entry's failure must not stall the rest of the queue.
		if err := m.evaluate(ctx, entry); err != nil {
			m.logger.Error("stability check failed", logging.String(logging.FieldPath, entry.Path), logging.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) evaluate(ctx context.Context, entry *registry.TrackedFile) error {
	now := m.clock()

	info, err := os.Stat(entry.Path)
	if err != nil {
		// Probe failed (file deleted mid-check, transient I/O error). Leave
		// the entry untouched; the next scan retires vanished files.
		m.logger.Debug("size probe failed", logging.String(logging.FieldPath, entry.Path), logging.Error(err))
		return nil
	}

	size := info.Size()
	if size != entry.Size {
		m.logger.Info("file size changed", logging.String(logging.FieldPath, entry.Path), logging.Int64("size", size))
		if err := m.store.RecordSizeChange(ctx, entry.Path, size, now, registry.CountdownMessage(now, now, m.window)); err != nil {
			return err
		}
		m.hub.StateChanged(entry.Path)
		return nil
	}

	if now.Sub(entry.LastChangeAt) >= m.window {
		m.promote(ctx, entry.Path, false)
		return nil
	}

	if err := m.store.UpdateMessage(ctx, entry.Path, registry.CountdownMessage(entry.LastChangeAt, now, m.window)); err != nil {
		return err
	}
	m.hub.StateChanged(entry.Path)
	return nil
}

// promote attempts the pending-to-processing transition and, on winning it,
// launches the extraction job. Losing the race is not an error: someone else
// already owns the entry.
func (m *Manager) promote(ctx context.Context, path string, forced bool) bool {
	message := "Processing"
	if forced {
		message = "Processing (forced)"
	}

	jobID := uuid.NewString()
	won, err := m.store.MarkProcessing(ctx, path, jobID, message)
	if err != nil {
		m.setLastError(err)
		m.logger.Error("promotion failed", logging.String(logging.FieldPath, path), logging.Error(err))
		return false
	}
	if !won {
		return false
	}

	m.logger.Info("file is stable, processing", logging.String(logging.FieldPath, path), logging.String(logging.FieldJobID, jobID), logging.Bool("forced", forced))
	m.hub.StateChanged(path)
	m.hub.Progress("Processing: " + filepath.Base(path))

	m.jobWG.Add(1)
	go m.runJob(path, jobID)
	return true
}
