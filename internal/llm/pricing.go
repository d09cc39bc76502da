package llm

import "sync"

// ModelPricing contains pricing for a model, per one million tokens.
type ModelPricing struct {
	InputPer1M  float64 `mapstructure:"input_per_1m" yaml:"input_per_1m"`
	OutputPer1M float64 `mapstructure:"output_per_1m" yaml:"output_per_1m"`
}

// Pricing maps provider -> model -> pricing.
type Pricing struct {
	mu     sync.RWMutex
	models map[string]map[string]ModelPricing
}

// NewPricing creates an empty pricing table.
func NewPricing() *Pricing {
	return &Pricing{models: make(map[string]map[string]ModelPricing)}
}

// DefaultPricing returns a table populated with known prices for the
// providers this service routes to.
func DefaultPricing() *Pricing {
	p := NewPricing()

	p.models["anthropic"] = map[string]ModelPricing{
		"claude-sonnet-4-5-20250929": {InputPer1M: 3.00, OutputPer1M: 15.00},
		"claude-haiku-4-5-20251001":  {InputPer1M: 1.00, OutputPer1M: 5.00},
		"claude-3-5-sonnet-20240620": {InputPer1M: 3.00, OutputPer1M: 15.00},
		"claude-3-haiku-20240307":    {InputPer1M: 0.25, OutputPer1M: 1.25},
	}
	p.models["googleai"] = map[string]ModelPricing{
		"gemini-2.0-flash": {InputPer1M: 0.10, OutputPer1M: 0.40},
		"gemini-1.5-pro":   {InputPer1M: 1.25, OutputPer1M: 5.00},
	}

	return p
}

// Set records pricing for a provider/model pair.
func (p *Pricing) Set(provider, model string, pricing ModelPricing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.models[provider] == nil {
		p.models[provider] = make(map[string]ModelPricing)
	}
	p.models[provider][model] = pricing
}

// CostFor computes the USD cost of the given usage. Unknown models
// cost zero; metering is best-effort for models without a price entry.
func (p *Pricing) CostFor(provider, model string, usage TokenUsage) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pricing, ok := p.models[provider][model]
	if !ok {
		return 0
	}
	return float64(usage.InputTokens)/1e6*pricing.InputPer1M +
		float64(usage.OutputTokens)/1e6*pricing.OutputPer1M
}
