package llm

import (
	"sort"
	"sync"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

// Registry manages provider registration and lookup. All operations
// are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry. Registering a nil provider
// or one with an empty name is an error; re-registering a name
// replaces the previous provider.
func (r *Registry) Register(provider Provider) error {
	if provider == nil {
		return types.NewError(types.LLM_PROVIDER_NOT_FOUND, "provider cannot be nil")
	}
	name := provider.Name()
	if name == "" {
		return types.NewError(types.LLM_PROVIDER_NOT_FOUND, "provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[name]
	if !ok {
		return nil, types.NewError(types.LLM_PROVIDER_NOT_FOUND,
			"no provider registered with name: "+name)
	}
	return provider, nil
}

// List returns the names of all registered providers, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
