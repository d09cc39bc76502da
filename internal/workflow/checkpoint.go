package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// Checkpoint captures workflow state at one activity boundary. State is
// the JSON output of the activity named Name; Sequence counts completed
// activities, starting at 1.
type Checkpoint struct {
	InstanceID string          `json:"instance_id"`
	Sequence   int             `json:"sequence"`
	Name       string          `json:"name"`
	State      json.RawMessage `json:"state"`
	Checksum   string          `json:"checksum"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ComputeChecksum returns the SHA256 hex digest over the checkpoint's
// identifying fields and state.
func (c *Checkpoint) ComputeChecksum() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|", c.InstanceID, c.Sequence, c.Name)
	h.Write(c.State)
	return hex.EncodeToString(h.Sum(nil))
}

// Seal stamps the creation time and checksum.
func (c *Checkpoint) Seal() {
	c.CreatedAt = time.Now().UTC()
	c.Checksum = c.ComputeChecksum()
}

// Verify recomputes the checksum and returns CHECKPOINT_CORRUPTED on
// mismatch.
func (c *Checkpoint) Verify() error {
	if c.Checksum == "" {
		return types.NewError(types.CHECKPOINT_CORRUPTED,
			fmt.Sprintf("checkpoint %s/%d has no checksum", c.InstanceID, c.Sequence))
	}
	if computed := c.ComputeChecksum(); computed != c.Checksum {
		return types.NewError(types.CHECKPOINT_CORRUPTED,
			fmt.Sprintf("checkpoint %s/%d checksum mismatch", c.InstanceID, c.Sequence))
	}
	return nil
}

// CheckpointStore persists checkpoints for crash recovery.
type CheckpointStore interface {
	// Save persists a sealed checkpoint.
	Save(ctx context.Context, cp *Checkpoint) error

	// Latest returns the highest-sequence checkpoint for an instance,
	// or nil when none exists.
	Latest(ctx context.Context, instanceID string) (*Checkpoint, error)

	// List returns all checkpoints for an instance in sequence order.
	List(ctx context.Context, instanceID string) ([]*Checkpoint, error)

	// Delete removes all checkpoints for an instance.
	Delete(ctx context.Context, instanceID string) error
}

// MemoryCheckpointStore is the in-process CheckpointStore.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string][]*Checkpoint
}

// NewMemoryCheckpointStore creates an empty in-memory checkpoint store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: make(map[string][]*Checkpoint),
	}
}

func (s *MemoryCheckpointStore) Save(ctx context.Context, cp *Checkpoint) error {
	if cp.InstanceID == "" {
		return types.NewError(types.CHECKPOINT_CORRUPTED, "checkpoint has no instance ID")
	}

	cpy := *cp
	cpy.State = append(json.RawMessage(nil), cp.State...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[cp.InstanceID] = append(s.checkpoints[cp.InstanceID], &cpy)
	return nil
}

func (s *MemoryCheckpointStore) Latest(ctx context.Context, instanceID string) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.checkpoints[instanceID]
	if len(list) == 0 {
		return nil, nil
	}

	latest := list[0]
	for _, cp := range list[1:] {
		if cp.Sequence > latest.Sequence {
			latest = cp
		}
	}
	cpy := *latest
	return &cpy, nil
}

func (s *MemoryCheckpointStore) List(ctx context.Context, instanceID string) ([]*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.checkpoints[instanceID]
	out := make([]*Checkpoint, len(list))
	for i, cp := range list {
		cpy := *cp
		out[i] = &cpy
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *MemoryCheckpointStore) Delete(ctx context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, instanceID)
	return nil
}
