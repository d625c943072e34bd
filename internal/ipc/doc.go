// Package ipc exposes daemon control to the CLI via JSON-RPC over a Unix
// domain socket: status, registry snapshots, manual promotion, scan
// triggering, directory management, and the event stream.
package ipc
