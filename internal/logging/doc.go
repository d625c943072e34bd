// Package logging constructs slog loggers for the daemon and CLI.
//
// It provides a console handler with aligned component prefixes, a JSON
// handler for machine consumption, multi-writer output to stdout plus the
// daemon log file, and small attribute helpers so call sites stay terse.
package logging
