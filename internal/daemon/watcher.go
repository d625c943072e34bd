package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"txrmwatch/internal/logging"
	"txrmwatch/internal/workflow"
)

const timeRound = time.Second

// arrivalDebounce batches bursts of filesystem events into a single rescan.
const arrivalDebounce = 2 * time.Second

// arrivalWatcher watches the monitored roots with fsnotify and asks the
// manager for an early rescan when a new scan file (or directory) appears.
// It only ever schedules scans; stability detection stays polling-based and
// the registry is never touched from here.
type arrivalWatcher struct {
	manager  *workflow.Manager
	watchExt string
	logger   *slog.Logger
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	watched map[string]struct{}
	closed  bool
}

func newArrivalWatcher(manager *workflow.Manager, watchExt string, logger *slog.Logger) (*arrivalWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &arrivalWatcher{
		manager:  manager,
		watchExt: watchExt,
		logger:   logging.WithComponent(logger, "arrival"),
		fsw:      fsw,
		watched:  make(map[string]struct{}),
	}, nil
}

// Run installs watches on the roots and starts the event loop.
func (w *arrivalWatcher) Run(ctx context.Context, roots []string) {
	w.SetRoots(roots)
	go w.loop(ctx)
}

// SetRoots replaces the watched directory trees.
func (w *arrivalWatcher) SetRoots(roots []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	for path := range w.watched {
		_ = w.fsw.Remove(path)
		delete(w.watched, path)
	}
	for _, root := range roots {
		w.addTreeLocked(root)
	}
}

// addTreeLocked walks a root and watches every directory under it. Symlinks
// are skipped to avoid loops.
func (w *arrivalWatcher) addTreeLocked(root string) {
	info, err := os.Lstat(root)
	if err != nil || !info.IsDir() {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Debug("watch install failed", logging.String(logging.FieldDirectory, path), logging.Error(err))
			return nil
		}
		w.watched[path] = struct{}{}
		return nil
	})
}

func (w *arrivalWatcher) loop(ctx context.Context) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if debounce == nil {
				debounce = time.AfterFunc(arrivalDebounce, func() {
					w.logger.Info("new arrivals detected, rescanning early")
					w.manager.TriggerScan()
				})
			} else {
				debounce.Reset(arrivalDebounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

func (w *arrivalWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	if strings.HasSuffix(strings.ToLower(event.Name), w.watchExt) {
		return true
	}
	// A new directory may carry scan files; watch it and rescan.
	info, err := os.Lstat(event.Name)
	if err == nil && info.IsDir() {
		w.mu.Lock()
		if !w.closed {
			w.addTreeLocked(event.Name)
		}
		w.mu.Unlock()
		return true
	}
	return false
}

func (w *arrivalWatcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	_ = w.fsw.Close()
}
