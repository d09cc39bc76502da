package workflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/HezziCode/hackathon-v-research-agent/internal/events"
	"github.com/HezziCode/hackathon-v-research-agent/internal/observability"
	"github.com/HezziCode/hackathon-v-research-agent/internal/task"
	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// DefaultApprovalTimeout bounds how long a gate waits for a human
// decision before the task times out.
const DefaultApprovalTimeout = 24 * time.Hour

// Options tunes a LocalEngine.
type Options struct {
	Retry           RetryPolicy
	ApprovalTimeout time.Duration
	Notifier        events.Notifier
	Metrics         *observability.Metrics
	Logger          *slog.Logger
}

// LocalEngine is the in-process Engine. Each scheduled instance runs
// its activities strictly sequentially on a dedicated goroutine,
// checkpointing after every activity boundary; the only intra-instance
// concurrency is the approval gate race.
type LocalEngine struct {
	def         Definition
	tasks       task.Store
	checkpoints CheckpointStore
	retry       RetryPolicy
	timeout     time.Duration
	notifier    events.Notifier
	metrics     *observability.Metrics
	logger      *slog.Logger

	mu        sync.RWMutex
	instances map[string]*instance
	wg        sync.WaitGroup
}

// instance tracks one running or finished workflow.
type instance struct {
	mu       sync.Mutex
	state    InstanceState
	decideCh chan ApprovalDecision
	cancel   context.CancelFunc

	// terminal override set by Terminate before cancelling the context
	overrideStatus task.TaskStatus
	overrideReason string
}

// NewLocalEngine creates an engine over the given definition and
// stores.
func NewLocalEngine(def Definition, tasks task.Store, checkpoints CheckpointStore, opts Options) *LocalEngine {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.ApprovalTimeout == 0 {
		opts.ApprovalTimeout = DefaultApprovalTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = events.NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &LocalEngine{
		def:         def,
		tasks:       tasks,
		checkpoints: checkpoints,
		retry:       opts.Retry,
		timeout:     opts.ApprovalTimeout,
		notifier:    opts.Notifier,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		instances:   make(map[string]*instance),
	}
}

// InstanceIDFor returns the deterministic instance ID for a task.
func InstanceIDFor(taskID types.ID) string {
	return "research-" + taskID.String()
}

// Schedule starts a new instance for the task.
func (e *LocalEngine) Schedule(ctx context.Context, t *task.Task) (string, error) {
	instanceID := InstanceIDFor(t.ID)

	e.mu.Lock()
	if _, exists := e.instances[instanceID]; exists {
		e.mu.Unlock()
		return "", types.NewError(types.WORKFLOW_UNAVAILABLE,
			"instance already scheduled: "+instanceID)
	}
	inst := e.newInstance(instanceID, t.ID)
	e.instances[instanceID] = inst
	e.mu.Unlock()

	updated, err := e.tasks.Update(ctx, t.ID, func(t *task.Task) error {
		t.WorkflowInstanceID = instanceID
		return nil
	})
	if err != nil {
		e.removeInstance(instanceID)
		return "", err
	}

	e.notifier.AuditAction(ctx, t.ID, "workflow_scheduled", "engine")
	e.start(inst, updated, 0, nil)
	return instanceID, nil
}

// Signal delivers an approval decision to a pending gate.
func (e *LocalEngine) Signal(ctx context.Context, instanceID string, decision ApprovalDecision) error {
	inst, err := e.instance(instanceID)
	if err != nil {
		return err
	}

	inst.mu.Lock()
	status := inst.state.Status
	inst.mu.Unlock()
	if status != RuntimeAwaitingApproval {
		return types.NewError(types.SIGNAL_NOT_DELIVERED,
			"instance is not awaiting approval: "+instanceID)
	}

	select {
	case inst.decideCh <- decision:
		return nil
	default:
		return types.NewError(types.SIGNAL_NOT_DELIVERED,
			"decision already pending for instance: "+instanceID)
	}
}

// Query returns the runtime state of an instance.
func (e *LocalEngine) Query(ctx context.Context, instanceID string) (*InstanceState, error) {
	inst, err := e.instance(instanceID)
	if err != nil {
		return nil, err
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()
	state := inst.state
	return &state, nil
}

// Terminate cancels a running instance. The runner observes the
// cancellation and moves the task to the given terminal status.
func (e *LocalEngine) Terminate(ctx context.Context, instanceID string, status task.TaskStatus, reason string) error {
	inst, err := e.instance(instanceID)
	if err != nil {
		return err
	}

	inst.mu.Lock()
	if isRuntimeTerminal(inst.state.Status) {
		inst.mu.Unlock()
		return types.NewError(types.WORKFLOW_TERMINATED,
			"instance already finished: "+instanceID)
	}
	inst.overrideStatus = status
	inst.overrideReason = reason
	inst.mu.Unlock()

	inst.cancel()
	return nil
}

// Resume reloads every non-terminal instance from the task store and
// continues each after its last completed activity. Called once at
// startup, before the API starts accepting work.
func (e *LocalEngine) Resume(ctx context.Context) (int, error) {
	all, err := e.tasks.List(ctx)
	if err != nil {
		return 0, err
	}

	resumed := 0
	for _, t := range all {
		if t.Status.IsTerminal() || t.WorkflowInstanceID == "" {
			continue
		}

		startSeq, input := e.recoverPosition(ctx, t.WorkflowInstanceID)

		e.mu.Lock()
		if _, exists := e.instances[t.WorkflowInstanceID]; exists {
			e.mu.Unlock()
			continue
		}
		inst := e.newInstance(t.WorkflowInstanceID, t.ID)
		e.instances[t.WorkflowInstanceID] = inst
		e.mu.Unlock()

		e.logger.Info("resuming workflow instance",
			"instance_id", t.WorkflowInstanceID,
			"task_id", t.ID,
			"completed_activities", startSeq,
			"status", t.Status)

		e.start(inst, t, startSeq, input)
		resumed++
	}
	return resumed, nil
}

// recoverPosition loads the latest checkpoint for an instance. A
// corrupted checkpoint is logged and discarded; the instance restarts
// from the beginning.
func (e *LocalEngine) recoverPosition(ctx context.Context, instanceID string) (int, json.RawMessage) {
	cp, err := e.checkpoints.Latest(ctx, instanceID)
	if err != nil || cp == nil {
		if err != nil {
			e.logger.Error("failed to load checkpoint", "instance_id", instanceID, "error", err)
		}
		return 0, nil
	}
	if err := cp.Verify(); err != nil {
		e.logger.Error("discarding corrupted checkpoint",
			"instance_id", instanceID, "sequence", cp.Sequence, "error", err)
		return 0, nil
	}
	return cp.Sequence, cp.State
}

// Shutdown cancels all running instances without overriding task
// state, leaving them resumable, and waits for the runners to exit.
func (e *LocalEngine) Shutdown(ctx context.Context) error {
	e.mu.RLock()
	for _, inst := range e.instances {
		inst.cancel()
	}
	e.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *LocalEngine) newInstance(instanceID string, taskID types.ID) *instance {
	now := time.Now().UTC()
	return &instance{
		state: InstanceState{
			InstanceID: instanceID,
			TaskID:     taskID,
			Status:     RuntimeRunning,
			StartedAt:  now,
			UpdatedAt:  now,
		},
		decideCh: make(chan ApprovalDecision, 1),
	}
}

func (e *LocalEngine) instance(instanceID string) (*instance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	inst, ok := e.instances[instanceID]
	if !ok {
		return nil, types.NewError(types.WORKFLOW_NOT_FOUND,
			"workflow instance not found: "+instanceID)
	}
	return inst, nil
}

func (e *LocalEngine) removeInstance(instanceID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.instances, instanceID)
}

// start launches the runner goroutine for an instance.
func (e *LocalEngine) start(inst *instance, t *task.Task, startSeq int, input json.RawMessage) {
	ctx, cancel := context.WithCancel(context.Background())
	inst.mu.Lock()
	inst.cancel = cancel
	inst.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		e.run(ctx, inst, t, startSeq, input)
	}()
}

// run executes the activity sequence for one instance.
//
// The approval gate is positional: it is raised before the activity
// that follows ApprovalAfter. Deriving it from the loop index rather
// than the persisted status means a resumed instance re-enters the
// gate even when a crash landed between the gate checkpoint and the
// awaiting_approval status write; only a persisted post-gate stage
// status counts as a recorded decision.
func (e *LocalEngine) run(ctx context.Context, inst *instance, t *task.Task, startSeq int, input json.RawMessage) {
	gateCleared := passedGate(t.Status)

	for i := startSeq; i < len(e.def.Activities); i++ {
		if e.gateBefore(i) && t.RequireApproval && !gateCleared {
			if !e.waitForApproval(ctx, inst, t) {
				return
			}
			gateCleared = true
		}

		act := e.def.Activities[i]
		inst.setCurrent(act.Name)

		var output json.RawMessage
		err := e.retry.Execute(ctx, func(ctx context.Context) error {
			var runErr error
			output, runErr = act.Run(ctx, t.ID, input)
			return runErr
		})
		if err != nil {
			e.finishWithError(ctx, inst, t, err)
			return
		}

		cp := &Checkpoint{
			InstanceID: inst.state.InstanceID,
			Sequence:   i + 1,
			Name:       act.Name,
			State:      output,
		}
		cp.Seal()
		if err := e.checkpoints.Save(ctx, cp); err != nil {
			// the run continues; recovery falls back to an earlier boundary
			e.logger.Error("failed to save checkpoint",
				"instance_id", inst.state.InstanceID, "sequence", cp.Sequence, "error", err)
		}
		e.notifier.AuditAction(ctx, t.ID, "checkpoint_saved:"+act.Name, "engine")

		input = output
	}

	inst.setStatus(RuntimeCompleted, "")
	e.notifier.AuditAction(ctx, t.ID, "workflow_completed", "engine")
	e.metrics.TaskFinished(ctx, task.TaskStatusCompleted.String())
}

// gateBefore reports whether the approval gate sits between activities
// i-1 and i.
func (e *LocalEngine) gateBefore(i int) bool {
	return e.def.ApprovalAfter != "" && i > 0 &&
		e.def.Activities[i-1].Name == e.def.ApprovalAfter
}

// passedGate reports whether the persisted status proves a granted
// approval: the task only reaches a post-gate stage through one.
func passedGate(s task.TaskStatus) bool {
	switch s {
	case task.TaskStatusSourcing, task.TaskStatusAnalyzing,
		task.TaskStatusVerifying, task.TaskStatusReporting:
		return true
	default:
		return false
	}
}

// waitForApproval races the decision signal against the wall-clock
// timer and the instance context. First resolution wins; the losers
// are discarded. Returns true when the run should continue.
func (e *LocalEngine) waitForApproval(ctx context.Context, inst *instance, t *task.Task) bool {
	if _, err := e.tasks.Update(ctx, t.ID, func(t *task.Task) error {
		t.Advance(task.TaskStatusAwaitingApproval)
		return nil
	}); err != nil {
		e.finishWithError(ctx, inst, t, err)
		return false
	}
	inst.setStatus(RuntimeAwaitingApproval, "")
	e.notifier.AuditAction(ctx, t.ID, "approval_requested", "engine")

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case decision := <-inst.decideCh:
		if decision.Approved {
			e.notifier.AuditAction(ctx, t.ID, "approval_granted", "human")
			inst.setStatus(RuntimeRunning, "")
			return true
		}
		reason := decision.Reason
		if reason == "" {
			reason = "approval rejected"
		}
		e.finishTerminal(ctx, inst, t, task.TaskStatusRejected, reason, RuntimeCompleted)
		e.notifier.AuditAction(ctx, t.ID, "approval_rejected", "human")
		return false

	case <-timer.C:
		e.finishTerminal(ctx, inst, t, task.TaskStatusTimedOut,
			"approval window elapsed", RuntimeCompleted)
		e.notifier.AuditAction(ctx, t.ID, "approval_timed_out", "engine")
		return false

	case <-ctx.Done():
		e.finishCancelled(inst, t)
		return false
	}
}

// finishWithError maps an activity failure onto the task's terminal
// status: budget exhaustion and cancellation have dedicated exits,
// everything else is FAILED.
func (e *LocalEngine) finishWithError(ctx context.Context, inst *instance, t *task.Task, err error) {
	if ctx.Err() != nil {
		e.finishCancelled(inst, t)
		return
	}

	status := task.TaskStatusFailed
	if types.CodeOf(err) == types.BUDGET_EXCEEDED {
		status = task.TaskStatusBudgetExceeded
	}
	e.finishTerminal(ctx, inst, t, status, err.Error(), RuntimeFailed)
	e.notifier.AuditAction(ctx, t.ID, "workflow_failed", "engine")
}

// finishCancelled applies the terminal override set by Terminate, or
// leaves the task untouched (resumable) on plain shutdown.
func (e *LocalEngine) finishCancelled(inst *instance, t *task.Task) {
	inst.mu.Lock()
	status := inst.overrideStatus
	reason := inst.overrideReason
	inst.mu.Unlock()

	if status == "" {
		inst.setStatus(RuntimeTerminated, "shutdown")
		return
	}

	// detached context: the instance context is already cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.finishTerminal(ctx, inst, t, status, reason, RuntimeTerminated)
	e.notifier.AuditAction(ctx, t.ID, "workflow_terminated", "engine")
}

func (e *LocalEngine) finishTerminal(ctx context.Context, inst *instance, t *task.Task, status task.TaskStatus, reason string, runtime RuntimeStatus) {
	if _, err := e.tasks.Update(ctx, t.ID, func(t *task.Task) error {
		t.ErrorMessage = reason
		t.Advance(status)
		return nil
	}); err != nil {
		e.logger.Error("failed to record terminal task status",
			"task_id", t.ID, "status", status, "error", err)
	}
	inst.setStatus(runtime, reason)
	e.metrics.TaskFinished(ctx, status.String())
}

func (inst *instance) setCurrent(activity string) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.state.CurrentActivity = activity
	inst.state.UpdatedAt = time.Now().UTC()
}

func (inst *instance) setStatus(status RuntimeStatus, errMsg string) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.state.Status = status
	inst.state.Error = errMsg
	inst.state.UpdatedAt = time.Now().UTC()
}

func isRuntimeTerminal(s RuntimeStatus) bool {
	switch s {
	case RuntimeCompleted, RuntimeFailed, RuntimeTerminated:
		return true
	default:
		return false
	}
}
