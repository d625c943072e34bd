// Package config loads, normalizes, and validates txrmwatch configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads and writes TOML files, and centralizes every knob the
// daemon and CLI need: monitored directories, scan and stability cadences,
// the extractor command, and notification settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
