// Package providers contains langchaingo-backed implementations of the
// llm.Provider interface.
package providers

import (
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/HezziCode/hackathon-v-research-agent/internal/llm"
)

// toMessages builds the langchaingo message list from a completion
// request: an optional system turn followed by the user prompt.
func toMessages(req llm.CompletionRequest) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		messages = append(messages, llms.MessageContent{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.System)},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  schema.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
	})
	return messages
}

// callOptions converts request tuning knobs into langchaingo options.
func callOptions(req llm.CompletionRequest) []llms.CallOption {
	opts := make([]llms.CallOption, 0, 3)
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	return opts
}

// fromResponse extracts content, stop reason, and token usage from a
// langchaingo response. Usage lives in provider-specific GenerationInfo
// keys; when absent we estimate from text length so cost metering
// always records something.
func fromResponse(resp *llms.ContentResponse, req llm.CompletionRequest) *llm.CompletionResponse {
	out := &llm.CompletionResponse{Model: req.Model}
	if resp == nil || len(resp.Choices) == 0 {
		return out
	}

	choice := resp.Choices[0]
	out.Content = choice.Content
	out.FinishReason = choice.StopReason
	out.Usage = usageFromGenerationInfo(choice.GenerationInfo)

	if out.Usage.InputTokens == 0 {
		out.Usage.InputTokens = estimateTokens(req.System) + estimateTokens(req.Prompt)
	}
	if out.Usage.OutputTokens == 0 {
		out.Usage.OutputTokens = estimateTokens(choice.Content)
	}
	return out
}

// usageFromGenerationInfo probes the key spellings used by the
// different langchaingo backends.
func usageFromGenerationInfo(info map[string]any) llm.TokenUsage {
	var usage llm.TokenUsage
	for _, key := range []string{"InputTokens", "input_tokens", "PromptTokens", "prompt_tokens"} {
		if v, ok := asInt(info[key]); ok {
			usage.InputTokens = v
			break
		}
	}
	for _, key := range []string{"OutputTokens", "output_tokens", "CompletionTokens", "completion_tokens"} {
		if v, ok := asInt(info[key]); ok {
			usage.OutputTokens = v
			break
		}
	}
	return usage
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// estimateTokens approximates token count at four characters per token.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(text)/4 + 1
}
