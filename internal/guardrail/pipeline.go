package guardrail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// BlockedError is returned when one or more guardrails trip. It carries
// every tripped result so callers can surface the full detection payload.
type BlockedError struct {
	Tripped map[string]Result
}

// Error implements the error interface.
func (e *BlockedError) Error() string {
	names := make([]string, 0, len(e.Tripped))
	for name := range e.Tripped {
		names = append(names, name)
	}
	return fmt.Sprintf("submission blocked by guardrails: %s", strings.Join(names, ", "))
}

// Is makes BlockedError match the GUARDRAIL_TRIPPED error code.
func (e *BlockedError) Is(target error) bool {
	return types.CodeOf(target) == types.GUARDRAIL_TRIPPED
}

// Pipeline evaluates a fixed set of guardrails against a submission.
// All checks run independently; any single trip blocks entry.
type Pipeline struct {
	guardrails []Guardrail
	logger     *slog.Logger
}

// NewPipeline creates a pipeline over the given guardrails.
func NewPipeline(guardrails ...Guardrail) *Pipeline {
	return &Pipeline{
		guardrails: guardrails,
		logger:     slog.Default(),
	}
}

// DefaultPipeline wires the three standard checks: PII, budget, jailbreak.
func DefaultPipeline() *Pipeline {
	return NewPipeline(NewPIIDetector(), NewBudgetCheck(), NewJailbreakDetector())
}

// WithLogger sets the logger for the pipeline.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	return p
}

// Evaluate runs every guardrail against the input. It returns all
// results keyed by guardrail name and, if any tripped, a BlockedError.
// A check that fails to run is logged and treated as clean; guardrails
// block on detection, never on infrastructure.
func (p *Pipeline) Evaluate(ctx context.Context, input Input) (map[string]Result, error) {
	results := make(map[string]Result, len(p.guardrails))
	tripped := make(map[string]Result)

	for _, g := range p.guardrails {
		result, err := g.Check(ctx, input)
		if err != nil {
			p.logger.Warn("guardrail check failed to run",
				"guardrail", g.Name(), "error", err)
			continue
		}
		results[g.Name()] = result
		if result.Tripped {
			p.logger.Warn("guardrail tripped",
				"guardrail", g.Name(), "reason", result.Reason)
			tripped[g.Name()] = result
		}
	}

	if len(tripped) > 0 {
		return results, &BlockedError{Tripped: tripped}
	}
	return results, nil
}
