package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"txrmwatch/internal/config"
	"txrmwatch/internal/events"
	"txrmwatch/internal/logging"
	"txrmwatch/internal/registry"
	"txrmwatch/internal/workflow"
)

// Daemon coordinates the monitor services and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	store      *registry.Store
	manager    *workflow.Manager
	hub        *events.Hub

	lockPath string
	lock     *flock.Flock
	watcher  *arrivalWatcher

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running     bool
	PID         int
	Directories []string
	NextScanIn  string
	Health      registry.HealthSummary
	RegistryDB  string
	LockFile    string
	LastError   string
}

// New constructs a daemon with initialized dependencies. configPath is where
// directory-list changes are persisted.
func New(cfg *config.Config, configPath string, store *registry.Store, manager *workflow.Manager, hub *events.Hub, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || manager == nil || hub == nil {
		return nil, errors.New("daemon requires config, store, manager, and event hub")
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:        cfg,
		configPath: configPath,
		logger:     logging.WithComponent(logger, "daemon"),
		store:      store,
		manager:    manager,
		hub:        hub,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the workflow manager and the
// arrival watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another txrmwatch daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.manager.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	if d.cfg.Monitor.ArrivalWatch {
		watcher, err := newArrivalWatcher(d.manager, d.cfg.Monitor.WatchExtension, d.logger)
		if err != nil {
			d.logger.Warn("arrival watcher unavailable, relying on periodic scans", logging.Error(err))
		} else {
			d.watcher = watcher
			d.watcher.Run(d.ctx, d.manager.Directories())
		}
	}

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.watcher != nil {
		d.watcher.Close()
		d.watcher = nil
	}
	d.manager.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Snapshot returns every tracked entry.
func (d *Daemon) Snapshot(ctx context.Context) ([]*registry.TrackedFile, error) {
	return d.manager.Snapshot(ctx)
}

// ProcessNow forces immediate promotion of a tracked entry.
func (d *Daemon) ProcessNow(ctx context.Context, path string) error {
	d.logger.Info("manual processing requested", logging.String(logging.FieldPath, path))
	return d.manager.ProcessNow(ctx, path)
}

// TriggerScan requests an immediate directory scan.
func (d *Daemon) TriggerScan() {
	d.logger.Info("manual scan triggered")
	d.manager.TriggerScan()
}

// Directories returns the monitored roots.
func (d *Daemon) Directories() []string {
	return d.manager.Directories()
}

// SetDirectories replaces the monitored roots, persists them to the config
// file, updates the arrival watcher, and triggers a rescan.
func (d *Daemon) SetDirectories(dirs []string) error {
	d.manager.SetDirectories(dirs)
	if d.watcher != nil {
		d.watcher.SetRoots(dirs)
	}

	d.cfg.Monitor.Directories = append([]string(nil), dirs...)
	if d.configPath == "" {
		return nil
	}
	if err := d.cfg.Save(d.configPath); err != nil {
		return fmt.Errorf("persist directories: %w", err)
	}
	d.logger.Info("configuration saved", logging.String("config", d.configPath))
	return nil
}

// Events fetches published events after the given sequence.
func (d *Daemon) Events(ctx context.Context, since uint64, limit int, wait bool) ([]events.Event, uint64, error) {
	return d.hub.Fetch(ctx, since, limit, wait)
}

// Status reports daemon runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:     d.running.Load(),
		PID:         os.Getpid(),
		Directories: d.manager.Directories(),
		NextScanIn:  d.manager.NextScanIn().Round(timeRound).String(),
		RegistryDB:  d.store.Path(),
		LockFile:    d.lockPath,
	}
	if health, err := d.manager.Health(ctx); err == nil {
		status.Health = health
	}
	if err := d.manager.LastError(); err != nil {
		status.LastError = err.Error()
	}
	return status
}
