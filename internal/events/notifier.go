package events

import (
	"context"
	"log/slog"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// Notifier is the fire-and-forget publication surface used by pipeline
// activities. Implementations log failures and never return them;
// observability is not load-bearing.
type Notifier interface {
	// StageStarted announces a task entering a pipeline stage.
	StageStarted(ctx context.Context, taskID types.ID, stage string)

	// StageCompleted announces a task finishing a pipeline stage.
	StageCompleted(ctx context.Context, taskID types.ID, stage string)

	// AuditAction records a stage action with its acting agent.
	AuditAction(ctx context.Context, taskID types.ID, action, actor string)
}

// BusNotifier publishes notifications onto a Bus.
type BusNotifier struct {
	bus    *Bus
	logger *slog.Logger
}

// NewNotifier creates a Notifier over the given bus.
func NewNotifier(bus *Bus, logger *slog.Logger) *BusNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &BusNotifier{bus: bus, logger: logger}
}

// StageStarted announces a task entering a pipeline stage.
func (n *BusNotifier) StageStarted(ctx context.Context, taskID types.ID, stage string) {
	n.publish(ctx, Event{
		Type:   EventStageStarted,
		Topic:  TopicStatusUpdates,
		TaskID: taskID,
		Stage:  stage,
	})
}

// StageCompleted announces a task finishing a pipeline stage.
func (n *BusNotifier) StageCompleted(ctx context.Context, taskID types.ID, stage string) {
	n.publish(ctx, Event{
		Type:   EventStageCompleted,
		Topic:  TopicStatusUpdates,
		TaskID: taskID,
		Stage:  stage,
	})
}

// AuditAction records a stage action with its acting agent.
func (n *BusNotifier) AuditAction(ctx context.Context, taskID types.ID, action, actor string) {
	n.publish(ctx, Event{
		Type:   EventAuditAction,
		Topic:  TopicAuditActions,
		TaskID: taskID,
		Action: action,
		Actor:  actor,
	})
}

func (n *BusNotifier) publish(ctx context.Context, event Event) {
	if err := n.bus.Publish(ctx, event); err != nil {
		n.logger.Warn("could not publish event",
			"type", event.Type, "task_id", event.TaskID, "error", err)
	}
}

// NopNotifier discards all notifications. Used when no event sink is
// configured and in tests.
type NopNotifier struct{}

// StageStarted implements Notifier.
func (NopNotifier) StageStarted(context.Context, types.ID, string) {}

// StageCompleted implements Notifier.
func (NopNotifier) StageCompleted(context.Context, types.ID, string) {}

// AuditAction implements Notifier.
func (NopNotifier) AuditAction(context.Context, types.ID, string, string) {}
