// Package events provides the best-effort event surface for pipeline
// observability. Publication is fire-and-forget: failures are logged,
// never propagated, and never block pipeline progress.
package events

import (
	"time"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// Topic names the logical event streams.
const (
	// TopicStatusUpdates carries stage started/completed notifications.
	TopicStatusUpdates = "fte.status.updates"

	// TopicAuditActions carries per-stage audit records with actor identity.
	TopicAuditActions = "fte.audit.actions"
)

// EventType identifies the category of an event.
type EventType string

const (
	EventStageStarted   EventType = "stage.started"
	EventStageCompleted EventType = "stage.completed"
	EventAuditAction    EventType = "audit.action"

	EventWorkflowScheduled EventType = "workflow.scheduled"
	EventWorkflowCompleted EventType = "workflow.completed"
	EventWorkflowFailed    EventType = "workflow.failed"
)

// Event is one observability record.
type Event struct {
	Type      EventType      `json:"type"`
	Topic     string         `json:"topic"`
	TaskID    types.ID       `json:"task_id"`
	Stage     string         `json:"stage,omitempty"`
	Action    string         `json:"action,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Filter selects which events a subscriber receives. Zero-valued
// fields match everything.
type Filter struct {
	Topic  string
	TaskID types.ID
}

// matches reports whether the event passes the filter.
func (f Filter) matches(e Event) bool {
	if f.Topic != "" && f.Topic != e.Topic {
		return false
	}
	if !f.TaskID.IsZero() && f.TaskID != e.TaskID {
		return false
	}
	return true
}
