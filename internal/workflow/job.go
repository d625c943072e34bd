package workflow

import (
	"context"
	"log/slog"

	"txrmwatch/internal/logging"
	"txrmwatch/internal/report"
)

// runJob performs one extraction end to end. It always drives the entry to a
// terminal state; no failure here ever propagates out of the goroutine. Jobs
// deliberately use a background context: once started, an extraction runs to
// completion even while the daemon is shutting down.
func (m *Manager) runJob(path, jobID string) {
	defer m.jobWG.Done()

	ctx := context.Background()
	logger := m.logger.With(logging.String(logging.FieldPath, path), logging.String(logging.FieldJobID, jobID))

	if err := m.jobs.Acquire(ctx, 1); err != nil {
		// Background context: Acquire only fails if the semaphore is misused.
		logger.Error("job slot acquire failed", logging.Error(err))
		m.finishErrored(ctx, logger, path, err)
		return
	}
	defer m.jobs.Release(1)

	logger.Info("extracting metadata")
	sidecar := report.SidecarPath(path, m.sidecarExt)

	fields, err := m.extractor.Extract(ctx, path)
	if err != nil {
		m.writeErrorSidecar(logger, sidecar, path, err)
		m.finishErrored(ctx, logger, path, err)
		return
	}

	if err := report.WriteSuccess(sidecar, path, fields, m.clock()); err != nil {
		m.writeErrorSidecar(logger, sidecar, path, err)
		m.finishErrored(ctx, logger, path, err)
		return
	}

	if err := m.store.MarkCompleted(ctx, path); err != nil {
		logger.Error("failed to record completion", logging.Error(err))
		m.setLastError(err)
		return
	}

	logger.Info("successfully processed")
	m.hub.StateChanged(path)
	m.hub.Progress("Completed: " + sidecar)
	if err := m.notifier.NotifyExtractionCompleted(ctx, path); err != nil {
		logger.Warn("completion notification failed", logging.Error(err))
	}
}

func (m *Manager) writeErrorSidecar(logger *slog.Logger, sidecar, path string, cause error) {
	if err := report.WriteError(sidecar, path, cause, m.clock()); err != nil {
		logger.Warn("error sidecar write failed", logging.Error(err))
	}
}

func (m *Manager) finishErrored(ctx context.Context, logger *slog.Logger, path string, cause error) {
	if err := m.store.MarkErrored(ctx, path, cause.Error()); err != nil {
		logger.Error("failed to record error state", logging.Error(err))
		m.setLastError(err)
		return
	}
	logger.Error("processing failed", logging.Error(cause))
	m.hub.StateChanged(path)
	m.hub.Progress("Error: " + path)
	if err := m.notifier.NotifyExtractionFailed(ctx, path, cause); err != nil {
		logger.Warn("failure notification failed", logging.Error(err))
	}
}
