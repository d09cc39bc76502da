package guardrail

import (
	"context"
	"fmt"
)

// BudgetCheck blocks submissions whose accumulated spend has already
// reached the configured limit. The spend figure is a snapshot supplied
// by the caller; the authoritative ledger lives in the llm cost tracker
// and is consulted again before every model call mid-pipeline.
type BudgetCheck struct{}

// NewBudgetCheck creates the budget guardrail.
func NewBudgetCheck() *BudgetCheck {
	return &BudgetCheck{}
}

// Name returns the unique name of this guardrail instance.
func (c *BudgetCheck) Name() string { return "budget_check" }

// Type returns the guardrail category.
func (c *BudgetCheck) Type() GuardrailType { return GuardrailTypeBudget }

// Check trips when spent >= limit. A zero limit means no gate.
func (c *BudgetCheck) Check(ctx context.Context, input Input) (Result, error) {
	if input.BudgetLimitUSD <= 0 {
		return Clean(), nil
	}
	if input.SpentUSD >= input.BudgetLimitUSD {
		r := Trip(fmt.Sprintf("budget exceeded: $%.2f spent of $%.2f limit",
			input.SpentUSD, input.BudgetLimitUSD))
		r.Info = map[string]any{
			"spent": input.SpentUSD,
			"limit": input.BudgetLimitUSD,
		}
		return r, nil
	}
	return Clean(), nil
}
