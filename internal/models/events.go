// Package models defines the data structures for tracker events.
package models

// Event types.
const (
	EventPositionUpdated = "position.updated"
	EventSessionStarted  = "session.started"
	EventSessionError    = "session.error"
	EventSessionEnded    = "session.ended"
)

// PositionUpdated is emitted whenever the reader's position changes.
// Token indices are -1 when unset.
type PositionUpdated struct {
	EventType string `json:"eventType"`
	TrackerID string `json:"trackerId"`
	Timestamp int64  `json:"timestamp"`
	Start     int    `json:"start"`
	Search    int    `json:"search"`
	End       int    `json:"end"`
	Bounds    int    `json:"bounds"`
	Word      string `json:"word,omitempty"` // Script word at End
}

// SessionEvent is emitted when recognition starts, fails or ends.
type SessionEvent struct {
	EventType string `json:"eventType"`
	TrackerID string `json:"trackerId"`
	Timestamp int64  `json:"timestamp"`
	Error     string `json:"error,omitempty"`
	Fatal     bool   `json:"fatal,omitempty"`
}
