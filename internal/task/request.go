package task

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

const (
	// MinQueryLength is the minimum accepted query length in characters.
	MinQueryLength = 10
	// MaxQueryLength is the maximum accepted query length in characters.
	MaxQueryLength = 5000

	// MinBudgetUSD and MaxBudgetUSD bound the per-task budget limit.
	MinBudgetUSD = 0.01
	MaxBudgetUSD = 100.0

	// DefaultBudgetUSD is applied when a submission omits the budget limit.
	DefaultBudgetUSD = 1.0
	// DefaultPriority is applied when a submission omits the priority.
	DefaultPriority = "P2"
)

var priorityPattern = regexp.MustCompile(`^P[123]$`)

// Request is an incoming task submission from a user or the A2A surface.
type Request struct {
	Query           string         `json:"query"`
	RequireApproval bool           `json:"require_approval"`
	BudgetLimitUSD  float64        `json:"budget_limit_usd"`
	Priority        string         `json:"priority"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Normalize trims the query and fills defaulted fields in place.
func (r *Request) Normalize() {
	r.Query = strings.TrimSpace(r.Query)
	if r.BudgetLimitUSD == 0 {
		r.BudgetLimitUSD = DefaultBudgetUSD
	}
	if r.Priority == "" {
		r.Priority = DefaultPriority
	}
}

// Validate checks the submission against the task API contract.
// It returns a TASK_VALIDATION_FAILED error naming the offending field.
func (r *Request) Validate() error {
	if len(r.Query) < MinQueryLength {
		return types.NewError(types.TASK_VALIDATION_FAILED,
			fmt.Sprintf("query must be at least %d characters", MinQueryLength))
	}
	if len(r.Query) > MaxQueryLength {
		return types.NewError(types.TASK_VALIDATION_FAILED,
			fmt.Sprintf("query must be at most %d characters", MaxQueryLength))
	}
	if r.BudgetLimitUSD < MinBudgetUSD || r.BudgetLimitUSD > MaxBudgetUSD {
		return types.NewError(types.TASK_VALIDATION_FAILED,
			fmt.Sprintf("budget_limit_usd must be between %.2f and %.2f", MinBudgetUSD, MaxBudgetUSD))
	}
	if !priorityPattern.MatchString(r.Priority) {
		return types.NewError(types.TASK_VALIDATION_FAILED,
			"priority must be one of P1, P2, P3")
	}
	return nil
}
