// Package events provides pub/sub event distribution for solve-progress
// notifications, consumed by the HTTP server's websocket stream.
package events

import "time"

// EventType identifies the kind of solve-lifecycle event.
type EventType string

const (
	SolveStarted        EventType = "solve_started"
	SolveStageCompleted  EventType = "solve_stage_completed"
	SolveCompleted       EventType = "solve_completed"
	SolveFailed          EventType = "solve_failed"
	RemoteQuotaExhausted EventType = "remote_quota_exhausted"
)

// Event is one emitted occurrence, broadcast to every subscriber of its
// Type.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
