package workflow

import (
	"context"
	"errors"
	"fmt"

	"txrmwatch/internal/registry"
)

// Manual override failures surfaced to IPC/CLI callers.
var (
	ErrNotTracked        = errors.New("file is not tracked")
	ErrAlreadyProcessing = errors.New("file is already processing")
	ErrAlreadyTerminal   = errors.New("file already finished processing")
)

// ProcessNow promotes a tracked entry immediately, bypassing the stability
// check. It shares the atomic promotion gate with tick-driven dispatch, so a
// manual request racing a tick still launches at most one job.
func (m *Manager) ProcessNow(ctx context.Context, path string) error {
	entry, err := m.store.Get(ctx, path)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrNotTracked, path)
	}
	switch {
	case entry.Status == registry.StatusProcessing:
		return fmt.Errorf("%w: %s", ErrAlreadyProcessing, path)
	case entry.Terminal():
		return fmt.Errorf("%w: %s", ErrAlreadyTerminal, path)
	}

	if !m.promote(ctx, path, true) {
		// Lost the race against a tick between the read above and the
		// check-and-set; from the caller's perspective it is processing.
		return fmt.Errorf("%w: %s", ErrAlreadyProcessing, path)
	}
	return nil
}
