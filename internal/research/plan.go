// Package research defines the typed payloads flowing between pipeline
// stages and their validation invariants. Payloads have no persisted
// identity; they exist only within one workflow execution's data flow.
package research

import (
	"fmt"
	"regexp"
	"time"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

const (
	// MinSubQuestions and MaxSubQuestions bound the size of a research plan.
	MinSubQuestions = 3
	MaxSubQuestions = 7
)

var (
	subQuestionIDPattern = regexp.MustCompile(`^SQ\d+$`)
	priorityPattern      = regexp.MustCompile(`^P[123]$`)
	complexityPattern    = regexp.MustCompile(`^(simple|moderate|complex)$`)
)

// SubQuestion is a decomposed sub-question from the research plan.
type SubQuestion struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Priority    string   `json:"priority"`
	SourceTypes []string `json:"source_types,omitempty"`
}

// Validate checks the sub-question shape.
func (q SubQuestion) Validate() error {
	if !subQuestionIDPattern.MatchString(q.ID) {
		return fmt.Errorf("sub-question id %q must match SQ<n>", q.ID)
	}
	if q.Question == "" {
		return fmt.Errorf("sub-question %s has empty question text", q.ID)
	}
	if !priorityPattern.MatchString(q.Priority) {
		return fmt.Errorf("sub-question %s priority %q must be P1, P2 or P3", q.ID, q.Priority)
	}
	return nil
}

// Plan is the structured output of the research planner stage.
type Plan struct {
	TaskID              types.ID      `json:"task_id"`
	SubQuestions        []SubQuestion `json:"sub_questions"`
	ScopeBoundaries     []string      `json:"scope_boundaries,omitempty"`
	SourceStrategy      string        `json:"source_strategy,omitempty"`
	EstimatedComplexity string        `json:"estimated_complexity,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
}

// Validate enforces the plan invariants: 3-7 sub-questions, each well
// formed, and at least one at P1 priority.
func (p *Plan) Validate() error {
	if len(p.SubQuestions) < MinSubQuestions || len(p.SubQuestions) > MaxSubQuestions {
		return fmt.Errorf("plan must have between %d and %d sub-questions, got %d",
			MinSubQuestions, MaxSubQuestions, len(p.SubQuestions))
	}

	hasP1 := false
	for _, q := range p.SubQuestions {
		if err := q.Validate(); err != nil {
			return err
		}
		if q.Priority == "P1" {
			hasP1 = true
		}
	}
	if !hasP1 {
		return fmt.Errorf("plan must have at least one P1 sub-question")
	}

	if p.EstimatedComplexity != "" && !complexityPattern.MatchString(p.EstimatedComplexity) {
		return fmt.Errorf("estimated complexity %q must be simple, moderate or complex", p.EstimatedComplexity)
	}
	return nil
}
