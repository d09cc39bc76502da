// Package pipeline implements the five research activities and binds
// them into the workflow definition: plan, find sources, analyze,
// verify, report.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/HezziCode/hackathon-v-research-agent/internal/artifact"
	"github.com/HezziCode/hackathon-v-research-agent/internal/events"
	"github.com/HezziCode/hackathon-v-research-agent/internal/llm"
	"github.com/HezziCode/hackathon-v-research-agent/internal/observability"
	"github.com/HezziCode/hackathon-v-research-agent/internal/research"
	"github.com/HezziCode/hackathon-v-research-agent/internal/task"
	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
	"github.com/HezziCode/hackathon-v-research-agent/internal/workflow"
)

// State is the envelope flowing between activities. Each activity
// decodes the previous State, appends its payload, and returns the
// merged result, which the engine checkpoints.
type State struct {
	TaskID       types.ID                   `json:"task_id"`
	Query        string                     `json:"query"`
	Plan         *research.Plan             `json:"plan,omitempty"`
	Sources      *research.SourceCollection `json:"sources,omitempty"`
	Analysis     *research.Analysis         `json:"analysis,omitempty"`
	Verification *research.Verification     `json:"verification,omitempty"`
	Report       *research.Report           `json:"report,omitempty"`
}

// Activities binds the pipeline stages to their collaborators.
type Activities struct {
	tasks     task.Store
	slots     llm.StageSlots
	tracker   *llm.CostTracker
	notifier  events.Notifier
	artifacts *artifact.Store
	renderer  artifact.Renderer
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// Config wires an Activities instance.
type Config struct {
	Tasks     task.Store
	Slots     llm.StageSlots
	Tracker   *llm.CostTracker
	Notifier  events.Notifier
	Artifacts *artifact.Store
	Renderer  artifact.Renderer
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

// New creates the activity set.
func New(cfg Config) *Activities {
	if cfg.Notifier == nil {
		cfg.Notifier = events.NopNotifier{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Activities{
		tasks:     cfg.Tasks,
		slots:     cfg.Slots,
		tracker:   cfg.Tracker,
		notifier:  cfg.Notifier,
		artifacts: cfg.Artifacts,
		renderer:  cfg.Renderer,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// Definition returns the workflow definition for the research
// pipeline. The approval gate sits after planning.
func (a *Activities) Definition() workflow.Definition {
	return workflow.Definition{
		Name:          "research",
		ApprovalAfter: task.StagePlanner.String(),
		Activities: []workflow.Activity{
			{Name: task.StagePlanner.String(), Stage: task.StagePlanner, Run: a.timed(task.StagePlanner, a.PlanResearch)},
			{Name: task.StageSourceFinder.String(), Stage: task.StageSourceFinder, Run: a.timed(task.StageSourceFinder, a.FindSources)},
			{Name: task.StageContentAnalyzer.String(), Stage: task.StageContentAnalyzer, Run: a.timed(task.StageContentAnalyzer, a.AnalyzeContent)},
			{Name: task.StageFactChecker.String(), Stage: task.StageFactChecker, Run: a.timed(task.StageFactChecker, a.VerifyFacts)},
			{Name: task.StageReportWriter.String(), Stage: task.StageReportWriter, Run: a.timed(task.StageReportWriter, a.WriteReport)},
		},
	}
}

type activityFunc = func(ctx context.Context, taskID types.ID, input json.RawMessage) (json.RawMessage, error)

// timed records the stage duration histogram around an activity.
func (a *Activities) timed(stage task.PipelineStage, run activityFunc) activityFunc {
	return func(ctx context.Context, taskID types.ID, input json.RawMessage) (json.RawMessage, error) {
		start := time.Now()
		out, err := run(ctx, taskID, input)
		a.metrics.StageObserved(ctx, stage.String(), time.Since(start))
		return out, err
	}
}

// enterStage marks the task as having entered a stage and returns the
// refreshed task. The budget ledger is checked here so an exhausted
// task aborts before spending more.
func (a *Activities) enterStage(ctx context.Context, taskID types.ID, stage task.PipelineStage, status task.TaskStatus) (*task.Task, error) {
	t, err := a.tasks.Update(ctx, taskID, func(t *task.Task) error {
		t.EnterStage(stage, status)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.tracker != nil {
		if err := a.tracker.CheckBudget(taskID, t.BudgetLimitUSD); err != nil {
			return nil, err
		}
	}

	a.notifier.StageStarted(ctx, taskID, stage.String())
	return t, nil
}

// complete runs one generation call through the stage's slot and
// meters its cost into the task ledger.
func (a *Activities) complete(ctx context.Context, t *task.Task, stage task.PipelineStage, system, prompt string) (string, error) {
	slot, err := a.slots.ForStage(stage.String())
	if err != nil {
		return "", err
	}

	resp, err := slot.Complete(ctx, system, prompt)
	if err != nil {
		return "", err
	}

	if a.tracker != nil {
		cost := a.tracker.RecordUsage(t.ID, slot.Provider.Name(), resp.Model, resp.Usage)
		a.metrics.CostRecorded(ctx, slot.Provider.Name(), resp.Model, cost)
		a.logger.Debug("completion metered",
			"task_id", t.ID,
			"stage", stage,
			"model", resp.Model,
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
			"cost_usd", cost)
	}
	return resp.Content, nil
}

func decodeState(input json.RawMessage) (*State, error) {
	var s State
	if len(input) == 0 {
		return &s, nil
	}
	if err := json.Unmarshal(input, &s); err != nil {
		return nil, types.WrapError(types.ACTIVITY_FAILED, "failed to decode pipeline state", err)
	}
	return &s, nil
}

func encodeState(s *State) (json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, types.WrapError(types.ACTIVITY_FAILED, "failed to encode pipeline state", err)
	}
	return data, nil
}

// parseInto extracts the JSON document from raw model output into v.
// Malformed output is retryable: the next attempt re-prompts.
func parseInto(stage task.PipelineStage, output string, v any) error {
	if err := research.DecodeInto(output, v); err != nil {
		return types.WrapRetryableError(types.ACTIVITY_FAILED,
			"failed to parse "+stage.String()+" output", err)
	}
	return nil
}
