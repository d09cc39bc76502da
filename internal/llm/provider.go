// Package llm provides the unified abstraction over external model
// providers, per-stage model routing, and the cost ledger that makes
// budget enforcement authoritative.
package llm

import "context"

// Provider is the interface all model providers implement. Each
// pipeline activity wraps exactly one Complete call.
type Provider interface {
	// Name returns the provider name (e.g. "anthropic", "googleai").
	Name() string

	// Models returns information about all available models.
	Models(ctx context.Context) ([]ModelInfo, error)

	// Complete sends a completion request and blocks for the full
	// response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ModelInfo contains metadata about a model.
type ModelInfo struct {
	// Name is the model identifier.
	Name string `json:"name"`

	// ContextWindow is the maximum number of tokens the model accepts.
	ContextWindow int `json:"context_window"`

	// MaxOutput is the maximum number of tokens the model can generate.
	MaxOutput int `json:"max_output"`

	// Features lists the capabilities this model supports.
	Features []string `json:"features"`
}

// SupportsFeature checks if the model supports a given capability.
func (m ModelInfo) SupportsFeature(feature string) bool {
	for _, f := range m.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// CompletionMessage is one turn of a completion conversation.
type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a single generation request.
type CompletionRequest struct {
	Model       string  `json:"model"`
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// TokenUsage reports the tokens consumed by one request.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// CompletionResponse is the full result of one generation call.
type CompletionResponse struct {
	Content      string     `json:"content"`
	Model        string     `json:"model"`
	Usage        TokenUsage `json:"usage"`
	FinishReason string     `json:"finish_reason,omitempty"`
}
