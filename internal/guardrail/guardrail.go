// Package guardrail implements the pre-execution predicate checks that
// can block pipeline entry: PII detection, budget enforcement, and
// jailbreak detection.
//
// Each check is stateless and independent. A check never errors on
// clean input; it only raises its tripwire when it wants to block.
package guardrail

import "context"

// GuardrailType identifies the category of a guardrail check.
type GuardrailType string

const (
	GuardrailTypePII       GuardrailType = "pii"
	GuardrailTypeBudget    GuardrailType = "budget"
	GuardrailTypeJailbreak GuardrailType = "jailbreak"
)

// Guardrail is a single pre-execution predicate check.
type Guardrail interface {
	// Name returns the unique name of this guardrail instance.
	Name() string

	// Type returns the guardrail category.
	Type() GuardrailType

	// Check evaluates the input. A returned Result with Tripped set
	// means the pipeline must not be entered. An error indicates the
	// check itself could not run, not a detection.
	Check(ctx context.Context, input Input) (Result, error)
}

// Input carries the submitted query plus the execution context a check
// may gate on.
type Input struct {
	// Content is the submitted query text.
	Content string

	// BudgetLimitUSD is the task's configured budget ceiling.
	BudgetLimitUSD float64

	// SpentUSD is the accumulated spend snapshot supplied by the caller.
	SpentUSD float64

	// Metadata carries free-form submission metadata.
	Metadata map[string]any
}

// Result is the outcome of one guardrail check: a detection payload
// plus the tripwire flag.
type Result struct {
	// Tripped signals the guardrail wants to block execution.
	Tripped bool `json:"tripped"`

	// Detections names what was found (e.g. "SSN", "email").
	Detections []string `json:"detections,omitempty"`

	// Reason is a human-readable explanation when tripped.
	Reason string `json:"reason,omitempty"`

	// Info carries check-specific detection details.
	Info map[string]any `json:"info,omitempty"`
}

// Clean returns a result that allows execution.
func Clean() Result {
	return Result{}
}

// Trip returns a blocking result with the given reason and detections.
func Trip(reason string, detections ...string) Result {
	return Result{
		Tripped:    true,
		Reason:     reason,
		Detections: detections,
	}
}
