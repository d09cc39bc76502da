package task

import (
	"context"
	"sort"
	"sync"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// Store provides persistence for Task entities.
//
// Implementations must serialize updates to a single task so concurrent
// stage transitions never lose writes; updates to different tasks must
// not interfere with each other.
type Store interface {
	// Save persists a task, overwriting any existing record with the same ID.
	Save(ctx context.Context, t *Task) error

	// Get retrieves a task by ID. Returns TASK_NOT_FOUND if absent.
	Get(ctx context.Context, id types.ID) (*Task, error)

	// List returns all known tasks ordered by creation time.
	List(ctx context.Context) ([]*Task, error)

	// Update applies fn to the task under the store's per-task lock,
	// persisting the result. Returns TASK_NOT_FOUND if absent; any error
	// from fn aborts the update.
	Update(ctx context.Context, id types.ID, fn func(*Task) error) (*Task, error)
}

// MemoryStore is the in-process Store backed by a concurrency-safe map.
// Tasks live for the lifetime of the process and are never deleted.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[types.ID]*Task
}

// NewMemoryStore creates an empty in-memory task store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[types.ID]*Task),
	}
}

// Save persists a copy of the task.
func (s *MemoryStore) Save(ctx context.Context, t *Task) error {
	if err := t.ID.Validate(); err != nil {
		return types.WrapError(types.TASK_VALIDATION_FAILED, "task ID is invalid", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t.Clone()
	return nil
}

// Get returns a copy of the stored task.
func (s *MemoryStore) Get(ctx context.Context, id types.ID) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, types.NewError(types.TASK_NOT_FOUND, "task not found: "+id.String())
	}
	return t.Clone(), nil
}

// List returns copies of all tasks ordered by creation time.
func (s *MemoryStore) List(ctx context.Context) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Update applies fn under the store lock so read-modify-write cycles on
// one task are atomic.
func (s *MemoryStore) Update(ctx context.Context, id types.ID, fn func(*Task) error) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, types.NewError(types.TASK_NOT_FOUND, "task not found: "+id.String())
	}

	updated := t.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	s.tasks[id] = updated
	return updated.Clone(), nil
}
