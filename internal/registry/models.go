package registry

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a tracked file.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusErrored    Status = "errored"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusErrored,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether a status is final: terminal entries are excluded
// from stability ticks and cannot be promoted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusErrored
}

// TrackedFile is one monitored scan file and its size-change history.
type TrackedFile struct {
	Path         string
	Size         int64
	LastChangeAt time.Time
	Status       Status
	Message      string
	ErrorMessage string
	JobID        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Terminal reports whether the entry reached a final state.
func (f *TrackedFile) Terminal() bool {
	return f.Status.Terminal()
}

// CountdownMessage renders the human-readable waiting status for an entry
// whose size last changed at the given instant. Remaining time is reported in
// whole seconds, floor-truncated, never negative.
func CountdownMessage(lastChange, now time.Time, window time.Duration) string {
	remaining := window - now.Sub(lastChange)
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf("Waiting for changes (%ds)", int(remaining.Seconds()))
}

// HealthSummary describes aggregated entry counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Errored    int
}
