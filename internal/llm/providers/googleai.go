package providers

import (
	"context"

	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/HezziCode/hackathon-v-research-agent/internal/llm"
	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// GoogleAIProvider serves Gemini models through langchaingo.
type GoogleAIProvider struct {
	client *googleai.GoogleAI
}

// NewGoogleAIProvider builds a provider from an API key. The googleai
// client dials during construction, so it takes a context.
func NewGoogleAIProvider(ctx context.Context, apiKey string) (*GoogleAIProvider, error) {
	client, err := googleai.New(ctx, googleai.WithAPIKey(apiKey))
	if err != nil {
		return nil, types.WrapError(types.LLM_COMPLETION_FAILED, "failed to initialize googleai client", err)
	}
	return &GoogleAIProvider{client: client}, nil
}

func (p *GoogleAIProvider) Name() string { return "googleai" }

func (p *GoogleAIProvider) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	return []llm.ModelInfo{
		{
			Name:          "gemini-2.0-flash",
			ContextWindow: 1048576,
			MaxOutput:     8192,
			Features:      []string{"tools", "vision", "json"},
		},
		{
			Name:          "gemini-1.5-pro",
			ContextWindow: 1048576,
			MaxOutput:     8192,
			Features:      []string{"tools", "vision", "json"},
		},
	}, nil
}

func (p *GoogleAIProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	resp, err := p.client.GenerateContent(ctx, toMessages(req), callOptions(req)...)
	if err != nil {
		return nil, types.WrapRetryableError(types.LLM_COMPLETION_FAILED, "googleai completion failed", err)
	}
	return fromResponse(resp, req), nil
}
