package domain

import "time"

// ActivityLogCap bounds the audit trail to the most recent entries; older
// entries are evicted when new ones are appended.
const ActivityLogCap = 100

// ActivityLogEntry is an append-only audit record of a notable action.
type ActivityLogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
}
