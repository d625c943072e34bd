// Package registry persists tracked scan files in SQLite and exposes the
// synchronized accessors every other component goes through.
//
// One row exists per monitored file path. The Directory Scanner creates and
// removes rows, stability ticks record observed sizes, and the dispatcher
// drives the pending -> processing -> completed/errored lifecycle. Status
// transitions are conditional UPDATE statements checking the current status,
// so promotion is an atomic check-and-set: two racing callers can never both
// move the same entry into processing.
//
// Callers only ever receive value copies from queries; no live reference to a
// row escapes this package.
//
// Treat this package as the single source of truth for entry semantics; when
// you add statuses or fields, update schema.sql and bump schemaVersion.
package registry
