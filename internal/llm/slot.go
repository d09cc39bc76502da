package llm

import (
	"context"
	"fmt"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// SlotDefinition names the model requirement of one pipeline stage.
// Stages declare the capability they need (context window, features)
// rather than dispatching on model strings per call; definitions are
// resolved once at startup against the registry.
type SlotDefinition struct {
	// Name identifies the slot (the pipeline stage name).
	Name string `mapstructure:"name" yaml:"name"`

	// Provider and Model select the concrete backend.
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`

	// MinContextWindow is the smallest acceptable context window.
	// Stages digesting many sources need large-context models.
	MinContextWindow int `mapstructure:"min_context_window" yaml:"min_context_window"`

	// RequiredFeatures lists capabilities the model must support.
	RequiredFeatures []string `mapstructure:"required_features" yaml:"required_features"`
}

// ResolvedSlot binds a slot definition to a live provider and model.
type ResolvedSlot struct {
	Definition SlotDefinition
	Provider   Provider
	Model      ModelInfo
}

// Complete runs one generation call through the slot's provider and
// model.
func (s *ResolvedSlot) Complete(ctx context.Context, system, prompt string) (*CompletionResponse, error) {
	return s.Provider.Complete(ctx, CompletionRequest{
		Model:  s.Model.Name,
		System: system,
		Prompt: prompt,
	})
}

// ResolveSlot matches a slot definition against the registry, checking
// that the named model exists and satisfies the slot's constraints.
func ResolveSlot(ctx context.Context, registry *Registry, def SlotDefinition) (*ResolvedSlot, error) {
	if def.Provider == "" || def.Model == "" {
		return nil, types.NewError(types.LLM_SLOT_UNRESOLVED,
			fmt.Sprintf("slot %q must name a provider and model", def.Name))
	}

	provider, err := registry.Get(def.Provider)
	if err != nil {
		return nil, types.WrapError(types.LLM_SLOT_UNRESOLVED,
			fmt.Sprintf("provider %q not found for slot %q", def.Provider, def.Name), err)
	}

	models, err := provider.Models(ctx)
	if err != nil {
		return nil, types.WrapError(types.LLM_SLOT_UNRESOLVED,
			fmt.Sprintf("failed to list models for slot %q", def.Name), err)
	}

	for _, model := range models {
		if model.Name != def.Model {
			continue
		}
		if def.MinContextWindow > 0 && model.ContextWindow < def.MinContextWindow {
			return nil, types.NewError(types.LLM_SLOT_UNRESOLVED,
				fmt.Sprintf("model %q context window %d is below the %d required by slot %q",
					model.Name, model.ContextWindow, def.MinContextWindow, def.Name))
		}
		for _, feature := range def.RequiredFeatures {
			if !model.SupportsFeature(feature) {
				return nil, types.NewError(types.LLM_SLOT_UNRESOLVED,
					fmt.Sprintf("model %q does not support %q required by slot %q",
						model.Name, feature, def.Name))
			}
		}
		return &ResolvedSlot{Definition: def, Provider: provider, Model: model}, nil
	}

	return nil, types.NewError(types.LLM_SLOT_UNRESOLVED,
		fmt.Sprintf("model %q not found in provider %q for slot %q", def.Model, def.Provider, def.Name))
}

// StageSlots holds the startup-resolved slot for every pipeline stage,
// keyed by stage name.
type StageSlots map[string]*ResolvedSlot

// ResolveStageSlots resolves every definition, failing fast on the
// first slot that cannot be satisfied.
func ResolveStageSlots(ctx context.Context, registry *Registry, defs []SlotDefinition) (StageSlots, error) {
	slots := make(StageSlots, len(defs))
	for _, def := range defs {
		resolved, err := ResolveSlot(ctx, registry, def)
		if err != nil {
			return nil, err
		}
		slots[def.Name] = resolved
	}
	return slots, nil
}

// ForStage returns the resolved slot for a stage.
func (s StageSlots) ForStage(stage string) (*ResolvedSlot, error) {
	slot, ok := s[stage]
	if !ok {
		return nil, types.NewError(types.LLM_SLOT_UNRESOLVED,
			"no slot resolved for stage: "+stage)
	}
	return slot, nil
}
