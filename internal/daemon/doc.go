// Package daemon hosts the long-running monitor: it enforces single-instance
// execution with a lock file, owns the workflow manager's lifecycle, applies
// runtime directory changes back to the config file, and optionally watches
// the monitored roots so newly arrived files trigger an early rescan.
package daemon
