package providers

import (
	"context"

	"github.com/tmc/langchaingo/llms/anthropic"

	"github.com/HezziCode/hackathon-v-research-agent/internal/llm"
	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// AnthropicProvider serves Claude models through langchaingo.
type AnthropicProvider struct {
	client *anthropic.LLM
}

// NewAnthropicProvider builds a provider from an API key.
func NewAnthropicProvider(apiKey string) (*AnthropicProvider, error) {
	client, err := anthropic.New(anthropic.WithToken(apiKey))
	if err != nil {
		return nil, types.WrapError(types.LLM_COMPLETION_FAILED, "failed to initialize anthropic client", err)
	}
	return &AnthropicProvider{client: client}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	return []llm.ModelInfo{
		{
			Name:          "claude-sonnet-4-5-20250929",
			ContextWindow: 200000,
			MaxOutput:     64000,
			Features:      []string{"tools", "vision", "json"},
		},
		{
			Name:          "claude-haiku-4-5-20251001",
			ContextWindow: 200000,
			MaxOutput:     64000,
			Features:      []string{"tools", "vision", "json"},
		},
		{
			Name:          "claude-3-5-sonnet-20240620",
			ContextWindow: 200000,
			MaxOutput:     8192,
			Features:      []string{"tools", "vision", "json"},
		},
		{
			Name:          "claude-3-haiku-20240307",
			ContextWindow: 200000,
			MaxOutput:     4096,
			Features:      []string{"tools", "vision"},
		},
	}, nil
}

func (p *AnthropicProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp, err := p.client.GenerateContent(ctx, toMessages(req), callOptions(req)...)
	if err != nil {
		return nil, types.WrapRetryableError(types.LLM_COMPLETION_FAILED, "anthropic completion failed", err)
	}
	return fromResponse(resp, req), nil
}
