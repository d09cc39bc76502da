// Package workflow implements the durable orchestration core: a
// checkpointed sequential engine that runs the research pipeline one
// goroutine per instance, races the human-approval gate against a
// wall-clock timer, and resumes interrupted instances after restart.
package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/HezziCode/hackathon-v-research-agent/internal/task"
	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// Activity is one retryable unit of work. Input is the checkpointed
// output of the previous activity (nil for the first); the returned
// payload becomes the next checkpoint state.
type Activity struct {
	Name  string
	Stage task.PipelineStage
	Run   func(ctx context.Context, taskID types.ID, input json.RawMessage) (json.RawMessage, error)
}

// Definition describes the orchestrated run: an ordered activity list
// and the gate position. When a task requires approval, the engine
// pauses after the activity named ApprovalAfter and races the decision
// signal against the timeout.
type Definition struct {
	Name          string
	Activities    []Activity
	ApprovalAfter string
}

// ApprovalDecision is the external signal resolving a pending gate.
type ApprovalDecision struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// RuntimeStatus is the engine-side state of one instance, distinct
// from the task's lifecycle status.
type RuntimeStatus string

const (
	RuntimeRunning          RuntimeStatus = "running"
	RuntimeAwaitingApproval RuntimeStatus = "awaiting_approval"
	RuntimeCompleted        RuntimeStatus = "completed"
	RuntimeFailed           RuntimeStatus = "failed"
	RuntimeTerminated       RuntimeStatus = "terminated"
)

// InstanceState is the queryable runtime view of one instance.
type InstanceState struct {
	InstanceID      string        `json:"instance_id"`
	TaskID          types.ID      `json:"task_id"`
	Status          RuntimeStatus `json:"status"`
	CurrentActivity string        `json:"current_activity,omitempty"`
	Error           string        `json:"error,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Engine is the orchestration capability interface. The engine is an
// optional collaborator: availability is probed once at startup, and
// when absent, submission degrades to accepted-but-unscheduled.
type Engine interface {
	// Schedule starts a new instance for the task and returns its
	// instance ID. The call returns as soon as the instance is running.
	Schedule(ctx context.Context, t *task.Task) (string, error)

	// Signal delivers an approval decision to a pending gate.
	Signal(ctx context.Context, instanceID string, decision ApprovalDecision) error

	// Query returns the runtime state of an instance.
	Query(ctx context.Context, instanceID string) (*InstanceState, error)

	// Terminate cancels a running instance. The task moves to the
	// given terminal status with the reason recorded.
	Terminate(ctx context.Context, instanceID string, status task.TaskStatus, reason string) error
}
