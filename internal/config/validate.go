package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMonitor(); err != nil {
		return err
	}
	if err := c.validateExtractor(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateMonitor() error {
	if c.Monitor.ScanInterval <= 0 {
		return errors.New("monitor.scan_interval must be positive")
	}
	if c.Monitor.StabilityInterval <= 0 {
		return errors.New("monitor.stability_interval must be positive")
	}
	if c.Monitor.StabilityDuration <= 0 {
		return errors.New("monitor.stability_duration must be positive")
	}
	if c.Monitor.MaxConcurrentJobs <= 0 {
		return errors.New("monitor.max_concurrent_jobs must be positive")
	}
	if c.Monitor.WatchExtension == c.Monitor.SidecarExtension {
		return fmt.Errorf("monitor.watch_extension and monitor.sidecar_extension must differ (both %q)", c.Monitor.WatchExtension)
	}
	return nil
}

func (c *Config) validateExtractor() error {
	if strings.TrimSpace(c.Extractor.Command) == "" {
		return errors.New("extractor.command must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}
