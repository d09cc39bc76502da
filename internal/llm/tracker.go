package llm

import (
	"fmt"
	"sync"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// UsageRecord accumulates token usage and cost for one task.
type UsageRecord struct {
	TaskID       types.ID
	InputTokens  int
	OutputTokens int
	TotalCostUSD float64
	CallCount    int
}

// CostTracker is the authoritative per-task spend ledger. Every
// completion is metered through RecordUsage; the budget guardrail and
// the activities gate on the ledger rather than on caller-supplied
// estimates.
type CostTracker struct {
	mu      sync.RWMutex
	pricing *Pricing
	usage   map[types.ID]*UsageRecord
	total   float64
}

// NewCostTracker creates a tracker over the given pricing table.
func NewCostTracker(pricing *Pricing) *CostTracker {
	if pricing == nil {
		pricing = DefaultPricing()
	}
	return &CostTracker{
		pricing: pricing,
		usage:   make(map[types.ID]*UsageRecord),
	}
}

// RecordUsage meters one completion into the task's ledger and returns
// the cost of that call.
func (t *CostTracker) RecordUsage(taskID types.ID, provider, model string, usage TokenUsage) float64 {
	cost := t.pricing.CostFor(provider, model, usage)

	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.usage[taskID]
	if !ok {
		record = &UsageRecord{TaskID: taskID}
		t.usage[taskID] = record
	}
	record.InputTokens += usage.InputTokens
	record.OutputTokens += usage.OutputTokens
	record.TotalCostUSD += cost
	record.CallCount++
	t.total += cost

	return cost
}

// Spent returns the accumulated cost for a task. Unknown tasks have
// spent nothing.
func (t *CostTracker) Spent(taskID types.ID) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if record, ok := t.usage[taskID]; ok {
		return record.TotalCostUSD
	}
	return 0
}

// Usage returns a copy of the task's usage record.
func (t *CostTracker) Usage(taskID types.ID) UsageRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if record, ok := t.usage[taskID]; ok {
		return *record
	}
	return UsageRecord{TaskID: taskID}
}

// TotalCost returns the cumulative cost across all tasks, for metrics.
func (t *CostTracker) TotalCost() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.total
}

// CheckBudget returns a BUDGET_EXCEEDED error when the task's spend
// has reached limitUSD. A zero limit disables the gate.
func (t *CostTracker) CheckBudget(taskID types.ID, limitUSD float64) error {
	if limitUSD <= 0 {
		return nil
	}
	spent := t.Spent(taskID)
	if spent >= limitUSD {
		return types.NewError(types.BUDGET_EXCEEDED,
			fmt.Sprintf("task %s spent $%.4f of $%.2f budget", taskID, spent, limitUSD))
	}
	return nil
}
