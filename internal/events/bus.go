package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultBufferSize = 100

// Bus distributes events to subscribers with optional filtering.
//
// Publish never blocks on slow subscribers: each subscription has a
// buffered channel and events are dropped for a subscriber whose buffer
// is full. Dropped events are logged; other subscribers are unaffected.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*subscription
	logger      *slog.Logger
	closed      bool
}

type subscription struct {
	id     string
	ch     chan Event
	filter Filter
}

// NewBus creates an event bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string]*subscription),
		logger:      logger,
	}
}

// Publish sends the event to all matching subscribers. It returns an
// error only if the bus is closed; slow subscribers never block it.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("event bus is closed")
	}

	for _, sub := range b.subscribers {
		if !sub.filter.matches(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			b.logger.Debug("dropped event for slow subscriber",
				"subscriber", sub.id, "type", event.Type)
		}
	}
	return nil
}

// Subscribe creates a subscription with optional filtering. The
// returned cleanup function must be called to release the subscription.
func (b *Bus) Subscribe(filter Filter, bufferSize int) (<-chan Event, func()) {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	sub := &subscription{
		id:     uuid.New().String(),
		ch:     make(chan Event, bufferSize),
		filter: filter,
	}

	b.mu.Lock()
	b.subscribers[sub.id] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subscribers[sub.id]; ok {
			delete(b.subscribers, sub.id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// Close shuts down the bus and all subscriptions. After Close, Publish
// returns an error.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for id, sub := range b.subscribers {
		delete(b.subscribers, id)
		close(sub.ch)
	}
	return nil
}
