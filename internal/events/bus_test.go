package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	ch, cancel := bus.Subscribe(Filter{}, 10)
	defer cancel()

	taskID := types.NewID()
	err := bus.Publish(context.Background(), Event{
		Type:   EventStageStarted,
		Topic:  TopicStatusUpdates,
		TaskID: taskID,
		Stage:  "planner",
	})
	require.NoError(t, err)

	select {
	case got := <-ch:
		assert.Equal(t, EventStageStarted, got.Type)
		assert.Equal(t, taskID, got.TaskID)
		assert.False(t, got.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event")
	}
}

func TestBus_FilterByTopic(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	audit, cancel := bus.Subscribe(Filter{Topic: TopicAuditActions}, 10)
	defer cancel()

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, Event{Type: EventStageStarted, Topic: TopicStatusUpdates}))
	require.NoError(t, bus.Publish(ctx, Event{Type: EventAuditAction, Topic: TopicAuditActions}))

	select {
	case got := <-audit:
		assert.Equal(t, EventAuditAction, got.Type)
	case <-time.After(time.Second):
		t.Fatal("expected audit event")
	}
	select {
	case got := <-audit:
		t.Fatalf("unexpected extra event: %v", got.Type)
	default:
	}
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	_, cancel := bus.Subscribe(Filter{}, 1)
	defer cancel()

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			assert.NoError(t, bus.Publish(ctx, Event{Type: EventStageStarted, Topic: TopicStatusUpdates}))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus(nil)
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), Event{Type: EventStageStarted})
	assert.Error(t, err)
}

func TestNotifier_PublishesToTopics(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	status, cancelStatus := bus.Subscribe(Filter{Topic: TopicStatusUpdates}, 10)
	defer cancelStatus()
	audit, cancelAudit := bus.Subscribe(Filter{Topic: TopicAuditActions}, 10)
	defer cancelAudit()

	n := NewNotifier(bus, nil)
	ctx := context.Background()
	taskID := types.NewID()

	n.StageStarted(ctx, taskID, "planner")
	n.StageCompleted(ctx, taskID, "planner")
	n.AuditAction(ctx, taskID, "plan_created", "research_planner")

	first := <-status
	second := <-status
	assert.Equal(t, EventStageStarted, first.Type)
	assert.Equal(t, EventStageCompleted, second.Type)

	act := <-audit
	assert.Equal(t, "plan_created", act.Action)
	assert.Equal(t, "research_planner", act.Actor)
}

func TestNotifier_ClosedBusIsSilent(t *testing.T) {
	bus := NewBus(nil)
	require.NoError(t, bus.Close())

	n := NewNotifier(bus, nil)
	// Must not panic or propagate the failure.
	n.StageStarted(context.Background(), types.NewID(), "planner")
}
