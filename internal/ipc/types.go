package ipc

import "txrmwatch/internal/events"

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse confirms shutdown began.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running     bool     `json:"running"`
	PID         int      `json:"pid"`
	Directories []string `json:"directories"`
	NextScanIn  string   `json:"next_scan_in"`
	Total       int      `json:"total"`
	Pending     int      `json:"pending"`
	Processing  int      `json:"processing"`
	Completed   int      `json:"completed"`
	Errored     int      `json:"errored"`
	RegistryDB  string   `json:"registry_db"`
	LockFile    string   `json:"lock_file"`
	LastError   string   `json:"last_error,omitempty"`
}

// TrackedFile mirrors a registry entry for CLI presentation.
type TrackedFile struct {
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
	LastChangeAt string `json:"last_change_at"`
}

// SnapshotRequest fetches the tracked-file table.
type SnapshotRequest struct{}

// SnapshotResponse contains every tracked entry.
type SnapshotResponse struct {
	Files []TrackedFile `json:"files"`
}

// ProcessNowRequest forces immediate processing of a tracked path.
type ProcessNowRequest struct {
	Path string `json:"path"`
}

// ProcessNowResponse reports the outcome of a manual promotion.
type ProcessNowResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message,omitempty"`
}

// ScanNowRequest triggers an immediate directory scan.
type ScanNowRequest struct{}

// ScanNowResponse acknowledges the trigger.
type ScanNowResponse struct {
	Triggered bool `json:"triggered"`
}

// DirectoriesRequest fetches the monitored roots.
type DirectoriesRequest struct{}

// DirectoriesResponse lists the monitored roots.
type DirectoriesResponse struct {
	Directories []string `json:"directories"`
}

// SetDirectoriesRequest replaces the monitored roots.
type SetDirectoriesRequest struct {
	Directories []string `json:"directories"`
}

// SetDirectoriesResponse confirms the update.
type SetDirectoriesResponse struct {
	Directories []string `json:"directories"`
}

// EventsRequest fetches events published after a sequence number. When Wait
// is set the daemon holds the request until an event arrives.
type EventsRequest struct {
	Since uint64 `json:"since"`
	Limit int    `json:"limit"`
	Wait  bool   `json:"wait"`
}

// EventsResponse carries published events and the cursor for the next fetch.
type EventsResponse struct {
	Events []events.Event `json:"events"`
	Next   uint64         `json:"next"`
}
