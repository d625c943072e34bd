package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"txrmwatch/internal/config"
	"txrmwatch/internal/events"
	"txrmwatch/internal/extract"
	"txrmwatch/internal/logging"
	"txrmwatch/internal/notifications"
	"txrmwatch/internal/registry"
	"txrmwatch/internal/scanner"
)

// Manager drives scanning, stability detection, and job dispatch.
type Manager struct {
	cfg       *config.Config
	store     *registry.Store
	scanner   *scanner.Scanner
	extractor extract.Extractor
	hub       *events.Hub
	notifier  notifications.Service
	logger    *slog.Logger

	scanEvery  time.Duration
	tickEvery  time.Duration
	window     time.Duration
	sidecarExt string

	clock func() time.Time
	jobs  *semaphore.Weighted
	jobWG sync.WaitGroup

	scanNow chan struct{}

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	directories []string
	nextScanAt  time.Time
	lastErr     error
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithClock overrides the wall clock (used in tests).
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithNotifier overrides the notification service (used in tests).
func WithNotifier(notifier notifications.Service) ManagerOption {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store *registry.Store, extractor extract.Extractor, hub *events.Hub, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:         cfg,
		store:       store,
		scanner:     scanner.New(cfg, store, hub, logger),
		extractor:   extractor,
		hub:         hub,
		notifier:    notifications.NewService(cfg),
		logger:      logging.WithComponent(logger, "workflow"),
		scanEvery:   cfg.ScanEvery(),
		tickEvery:   cfg.TickEvery(),
		window:      cfg.StabilityWindow(),
		sidecarExt:  cfg.Monitor.SidecarExtension,
		clock:       time.Now,
		jobs:        semaphore.NewWeighted(int64(cfg.Monitor.MaxConcurrentJobs)),
		scanNow:     make(chan struct{}, 1),
		directories: append([]string(nil), cfg.Monitor.Directories...),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

/// Start begins background processing: recovery of entries abandoned in
// processing by a previous run, one immediate scan, then the two loops.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.nextScanAt = m.clock().Add(m.scanEvery)
	m.mu.Unlock()

	if reset, err := m.store.ResetStuckProcessing(runCtx); err != nil {
		m.logger.Warn("reset stuck processing failed", logging.Error(err))
	} else if reset > 0 {
		m.logger.Info("reset entries abandoned in processing", logging.Int64("count", reset))
	}

	m.runScan(runCtx)

	m.wg.Add(2)
	go m.scanLoop(runCtx)
	go m.tickLoop(runCtx)
	return nil
}

// Stop terminates the loops and waits for in-flight jobs to finish. Jobs are
// not cancellable mid-flight; extraction either completes or records an
// error before Stop returns.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.jobWG.Wait()
}

// Running reports whether the loops are active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// TriggerScan requests an immediate out-of-cycle scan. It never blocks; a
// scan already queued absorbs the request.
func (m *Manager) TriggerScan() {
	select {
	case m.scanNow <- struct{}{}:
	default:
	}
}

// NextScanIn reports the time remaining until the next periodic scan.
func (m *Manager) NextScanIn() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	remaining := time.Until(m.nextScanAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Directories returns the currently monitored roots.
func (m *Manager) Directories() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.directories...)
}

// SetDirectories replaces the monitored roots and requests a rescan so the
// tracked set converges immediately.
func (m *Manager) SetDirectories(dirs []string) {
	m.mu.Lock()
	m.directories = append([]string(nil), dirs...)
	m.mu.Unlock()
	m.logger.Info("monitored directories updated", logging.Int("count", len(dirs)))
	m.TriggerScan()
}

// Snapshot returns a consistent copy of every tracked entry.
func (m *Manager) Snapshot(ctx context.Context) ([]*registry.TrackedFile, error) {
	return m.store.Snapshot(ctx)
}

// Health returns aggregate entry counts.
func (m *Manager) Health(ctx context.Context) (registry.HealthSummary, error) {
	return m.store.Health(ctx)
}

// LastError returns the most recent loop-level failure, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) scanLoop(ctx context.Context) {
	defer m.wg.Done()
	timer := time.NewTimer(m.scanEvery)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-m.scanNow:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		m.runScan(ctx)
		timer.Reset(m.scanEvery)
		m.mu.Lock()
		m.nextScanAt = m.clock().Add(m.scanEvery)
		m.mu.Unlock()
	}
}

func (m *Manager) tickLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
				m.setLastError(err)
				m.logger.Error("stability tick failed", logging.Error(err))
			}
		}
	}
}

func (m *Manager) runScan(ctx context.Context) {
	if _, err := m.scanner.Scan(ctx, m.Directories()); err != nil && !errors.Is(err, context.Canceled) {
		m.setLastError(err)
		m.logger.Error("scan failed", logging.Error(err))
	}
}
