package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// TaskStatus represents the lifecycle state of a research task.
type TaskStatus string

const (
	TaskStatusAccepted         TaskStatus = "accepted"
	TaskStatusPlanning         TaskStatus = "planning"
	TaskStatusSourcing         TaskStatus = "sourcing"
	TaskStatusAnalyzing        TaskStatus = "analyzing"
	TaskStatusVerifying        TaskStatus = "verifying"
	TaskStatusReporting        TaskStatus = "reporting"
	TaskStatusCompleted        TaskStatus = "completed"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusAwaitingApproval TaskStatus = "awaiting_approval"
	TaskStatusRejected         TaskStatus = "rejected"
	TaskStatusBudgetExceeded   TaskStatus = "budget_exceeded"
	TaskStatusTimedOut         TaskStatus = "timed_out"
	TaskStatusCanceled         TaskStatus = "canceled"
)

// String returns the string representation of TaskStatus.
func (s TaskStatus) String() string {
	return string(s)
}

// IsValid checks if the TaskStatus is a valid value.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusAccepted, TaskStatusPlanning, TaskStatusSourcing,
		TaskStatusAnalyzing, TaskStatusVerifying, TaskStatusReporting,
		TaskStatusCompleted, TaskStatusFailed, TaskStatusAwaitingApproval,
		TaskStatusRejected, TaskStatusBudgetExceeded, TaskStatusTimedOut,
		TaskStatusCanceled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status admits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusRejected,
		TaskStatusBudgetExceeded, TaskStatusTimedOut, TaskStatusCanceled:
		return true
	default:
		return false
	}
}

// UnmarshalJSON implements json.Unmarshaler with validation.
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status := TaskStatus(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid task status: %s", str)
	}

	*s = status
	return nil
}

// PipelineStage identifies a position in the five-agent research pipeline.
type PipelineStage string

const (
	StagePlanner         PipelineStage = "planner"
	StageSourceFinder    PipelineStage = "source_finder"
	StageContentAnalyzer PipelineStage = "content_analyzer"
	StageFactChecker     PipelineStage = "fact_checker"
	StageReportWriter    PipelineStage = "report_writer"
)

// String returns the string representation of PipelineStage.
func (s PipelineStage) String() string {
	return string(s)
}

// IsValid checks if the PipelineStage is a valid value.
func (s PipelineStage) IsValid() bool {
	switch s {
	case StagePlanner, StageSourceFinder, StageContentAnalyzer,
		StageFactChecker, StageReportWriter:
		return true
	default:
		return false
	}
}

// stageProgress maps each pipeline stage to the externally reported
// completion percentage while that stage is active.
var stageProgress = map[PipelineStage]int{
	StagePlanner:         20,
	StageSourceFinder:    40,
	StageContentAnalyzer: 60,
	StageFactChecker:     80,
	StageReportWriter:    95,
}

// ArtifactRef is a reference to a generated output file.
// Created only by the report writer stage; immutable thereafter.
type ArtifactRef struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Path        string `json:"path"`
}

// Task is the full research task entity with all lifecycle fields.
type Task struct {
	ID                 types.ID       `json:"id"`
	Query              string         `json:"query"`
	Status             TaskStatus     `json:"status"`
	RequireApproval    bool           `json:"require_approval"`
	BudgetLimitUSD     float64        `json:"budget_limit_usd"`
	Priority           string         `json:"priority"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	WorkflowInstanceID string         `json:"workflow_instance_id,omitempty"`
	CurrentStage       PipelineStage  `json:"current_stage,omitempty"`
	ErrorMessage       string         `json:"error_message,omitempty"`
	Artifacts          []ArtifactRef  `json:"artifacts,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// New creates a Task from an accepted request with a fresh ID and
// accepted status.
func New(req Request) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:              types.NewID(),
		Query:           req.Query,
		Status:          TaskStatusAccepted,
		RequireApproval: req.RequireApproval,
		BudgetLimitUSD:  req.BudgetLimitUSD,
		Priority:        req.Priority,
		CreatedAt:       now,
		UpdatedAt:       now,
		Metadata:        req.Metadata,
	}
}

// Advance moves the task to newStatus, refreshing the updated timestamp.
// Only a transition into completed sets the completion timestamp.
func (t *Task) Advance(newStatus TaskStatus) {
	t.Status = newStatus
	t.UpdatedAt = time.Now().UTC()
	if newStatus == TaskStatusCompleted {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}
}

// EnterStage records the pipeline stage and its in-progress status.
func (t *Task) EnterStage(stage PipelineStage, status TaskStatus) {
	t.CurrentStage = stage
	t.Advance(status)
}

// Progress returns the completion percentage as a pure function of
// (status, current stage). Completed tasks always report 100.
func (t *Task) Progress() int {
	if t.Status == TaskStatusCompleted {
		return 100
	}
	if pct, ok := stageProgress[t.CurrentStage]; ok {
		return pct
	}
	return 0
}

// StatusResponse is the polling-facing view of a task.
type StatusResponse struct {
	TaskID       types.ID      `json:"task_id"`
	Status       TaskStatus    `json:"status"`
	CurrentStage PipelineStage `json:"current_stage,omitempty"`
	ProgressPct  int           `json:"progress_pct"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ToStatusResponse converts the task to its API status view.
func (t *Task) ToStatusResponse() StatusResponse {
	return StatusResponse{
		TaskID:       t.ID,
		Status:       t.Status,
		CurrentStage: t.CurrentStage,
		ProgressPct:  t.Progress(),
		ErrorMessage: t.ErrorMessage,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// Clone returns a deep copy of the task so callers can mutate the
// result without racing the store.
func (t *Task) Clone() *Task {
	cp := *t
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		cp.CompletedAt = &completed
	}
	if t.Artifacts != nil {
		cp.Artifacts = make([]ArtifactRef, len(t.Artifacts))
		copy(cp.Artifacts, t.Artifacts)
	}
	if t.Metadata != nil {
		cp.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
