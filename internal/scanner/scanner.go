// Package scanner reconciles the monitored directories with the registry.
//
// A scan enumerates every configured root recursively, keeps files carrying
// the watched extension that do not yet have a sidecar report, and diffs the
// result against the tracked set: unseen files become new pending entries,
// tracked files that vanished (or gained a report out of band) are retired.
// A missing root is logged and skipped, never fatal. All registry mutation
// goes through the store, so scans may interleave freely with stability
// ticks.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"

	"txrmwatch/internal/config"
	"txrmwatch/internal/events"
	"txrmwatch/internal/logging"
	"txrmwatch/internal/registry"
	"txrmwatch/internal/report"
)

// Scanner discovers eligible scan files using a parallel directory walk.
type Scanner struct {
	store      *registry.Store
	hub        *events.Hub
	logger     *slog.Logger
	watchExt   string
	sidecarExt string
	window     time.Duration
}

// Result summarizes one scan pass.
type Result struct {
	Found   int
	Added   int
	Removed int
	Tracked int
}

// New constructs a scanner bound to the registry and event hub.
func New(cfg *config.Config, store *registry.Store, hub *events.Hub, logger *slog.Logger) *Scanner {
	return &Scanner{
		store:      store,
		hub:        hub,
		logger:     logging.WithComponent(logger, "scanner"),
		watchExt:   cfg.Monitor.WatchExtension,
		sidecarExt: cfg.Monitor.SidecarExtension,
		window:     cfg.StabilityWindow(),
	}
}

// Scan runs one full reconciliation pass over the given roots.
func (s *Scanner) Scan(ctx context.Context, roots []string) (Result, error) {
	var result Result

	if len(roots) == 0 {
		s.hub.Progress("No directories configured")
		return result, nil
	}

	s.logger.Info("scanning directories", logging.Int("count", len(roots)))

	found := make(map[string]int64)
	var foundMu sync.Mutex

	conf := fastwalk.Config{Follow: false}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			s.logger.Warn("directory unavailable, skipping", logging.String(logging.FieldDirectory, root))
			continue
		}

		s.hub.Progress("Scanning: " + root)

		walkErr := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable entries are skipped; the next scan retries.
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if d.IsDir() {
				if path != root {
					s.hub.Progress("Scanning: " + path)
				}
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), s.watchExt) {
				return nil
			}
			if _, err := os.Stat(report.SidecarPath(path, s.sidecarExt)); err == nil {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return nil
			}
			foundMu.Lock()
			found[path] = fi.Size()
			foundMu.Unlock()
			return nil
		})
		if walkErr != nil {
			if errors.Is(walkErr, context.Canceled) {
				return result, walkErr
			}
			s.logger.Error("walk failed", logging.String(logging.FieldDirectory, root), logging.Error(walkErr))
		}
	}
	result.Found = len(found)

	now := time.Now()
	for path, size := range found {
		created, err := s.store.Track(ctx, path, size, now, registry.CountdownMessage(now, now, s.window))
		if err != nil {
			return result, err
		}
		if created {
			result.Added++
			s.logger.Info("new file detected", logging.String(logging.FieldPath, path), logging.Int64("size", size))
			s.hub.StateChanged(path)
		}
	}

	removed, err := s.retireMissing(ctx, found)
	if err != nil {
		return result, err
	}
	result.Removed = removed

	health, err := s.store.Health(ctx)
	if err != nil {
		return result, err
	}
	result.Tracked = health.Total

	s.logger.Info("scan complete", logging.Int("tracked", result.Tracked), logging.Int("added", result.Added), logging.Int("removed", result.Removed))
	s.hub.Progress(scanSummary(result.Tracked))
	s.hub.StateChanged("")
	return result, nil
}

// retireMissing removes tracked entries whose files are no longer eligible:
// deleted from disk, or now carrying a sidecar report.
func (s *Scanner) retireMissing(ctx context.Context, found map[string]int64) (int, error) {
	paths, err := s.store.Paths(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range paths {
		if _, ok := found[path]; ok {
			continue
		}
		gone, err := s.store.Remove(ctx, path)
		if err != nil {
			return removed, err
		}
		if gone {
			removed++
			s.logger.Info("removed from monitoring", logging.String(logging.FieldPath, path))
			s.hub.StateChanged(path)
		}
	}
	return removed, nil
}

func scanSummary(tracked int) string {
	noun := "files"
	if tracked == 1 {
		noun = "file"
	}
	return "Scan complete. Monitoring " + strconv.Itoa(tracked) + " " + noun
}
