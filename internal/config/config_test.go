package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"txrmwatch/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing file to be reported")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Monitor.ScanInterval != 300 || cfg.Monitor.StabilityDuration != 600 {
		t.Fatalf("unexpected defaults: %+v", cfg.Monitor)
	}
	if cfg.Monitor.WatchExtension != ".txrm" || cfg.Monitor.SidecarExtension != ".txt" {
		t.Fatalf("unexpected extensions: %+v", cfg.Monitor)
	}
	if cfg.ScanEvery() != 5*time.Minute || cfg.TickEvery() != 10*time.Second || cfg.StabilityWindow() != 10*time.Minute {
		t.Fatalf("unexpected durations: scan=%v tick=%v window=%v", cfg.ScanEvery(), cfg.TickEvery(), cfg.StabilityWindow())
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	watch := filepath.Join(dir, "scans")
	path := filepath.Join(dir, "config.toml")

	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[monitor]
directories = ["` + watch + `", "` + watch + `", "  "]
scan_interval = 60
stability_duration = 120
watch_extension = "TXRM"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected file to be found")
	}
	if len(cfg.Monitor.Directories) != 1 || cfg.Monitor.Directories[0] != watch {
		t.Fatalf("expected deduplicated directories, got %v", cfg.Monitor.Directories)
	}
	if cfg.Monitor.WatchExtension != ".txrm" {
		t.Fatalf("expected normalized extension, got %q", cfg.Monitor.WatchExtension)
	}
	if cfg.Monitor.ScanInterval != 60 || cfg.Monitor.StabilityDuration != 120 {
		t.Fatalf("unexpected intervals: %+v", cfg.Monitor)
	}
	// Unset fields keep their defaults.
	if cfg.Monitor.StabilityInterval != 10 || cfg.Extractor.Command != "xrm-metadata" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[monitor]
scan_interval = -5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for negative scan_interval")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	watch := filepath.Join(dir, "microscope")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.Monitor.Directories = []string{watch}
	cfg.Monitor.ScanInterval = 42

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !exists {
		t.Fatal("expected saved file to exist")
	}
	if len(reloaded.Monitor.Directories) != 1 || reloaded.Monitor.Directories[0] != watch {
		t.Fatalf("directories not persisted: %v", reloaded.Monitor.Directories)
	}
	if reloaded.Monitor.ScanInterval != 42 {
		t.Fatalf("scan interval not persisted: %d", reloaded.Monitor.ScanInterval)
	}
}

func TestWriteSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected WriteSample to refuse overwriting")
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config must parse: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Monitor.ScanInterval != 300 {
		t.Fatalf("sample must carry default values, got %d", cfg.Monitor.ScanInterval)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/var/lib/txrmwatch"
	cfg.Paths.LogDir = "/var/log/txrmwatch"

	if got := cfg.RegistryPath(); got != "/var/lib/txrmwatch/registry.db" {
		t.Fatalf("RegistryPath = %q", got)
	}
	if got := cfg.SocketPath(); got != "/var/lib/txrmwatch/txrmwatch.sock" {
		t.Fatalf("SocketPath = %q", got)
	}
	if got := cfg.LockPath(); got != "/var/lib/txrmwatch/txrmwatchd.lock" {
		t.Fatalf("LockPath = %q", got)
	}
	if got := cfg.LogPath(); got != "/var/log/txrmwatch/txrmwatch.log" {
		t.Fatalf("LogPath = %q", got)
	}
}
