// Package testsupport provides shared helpers for package tests: temp-dir
// backed configs, registry stores, and scan-file fixtures.
package testsupport

import (
	"path/filepath"
	"testing"

	"txrmwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Intervals default to values small enough for test runs and a watch
// directory is created under the temp root.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Monitor.Directories = []string{filepath.Join(base, "scans")}
	cfg.Monitor.ScanInterval = 1
	cfg.Monitor.StabilityInterval = 1
	cfg.Monitor.StabilityDuration = 2
	cfg.Monitor.ArrivalWatch = false
	cfg.Extractor.Command = "true"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithDirectories overrides the monitored roots on the test config.
func WithDirectories(dirs ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Monitor.Directories = dirs
	}
}

// WithStabilityDuration overrides the quiet window, in seconds.
func WithStabilityDuration(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Monitor.StabilityDuration = seconds
	}
}

// WatchDir returns the first monitored root of the test config.
func WatchDir(cfg *config.Config) string {
	if len(cfg.Monitor.Directories) == 0 {
		return ""
	}
	return cfg.Monitor.Directories[0]
}
