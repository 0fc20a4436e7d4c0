package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages payment provider factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

var defaultRegistry = NewProviderRegistry()

// NewProviderRegistry creates a new registry instance
func NewProviderRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ProviderFactory),
	}
}

// Register adds a provider factory to the registry
func (r *Registry) Register(name string, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new provider instance by name
func (r *Registry) Get(name string) (PaymentProvider, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("payment provider not registered: %s", name)
	}
	return factory(), nil
}

// Names returns registered provider names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a provider factory to the default registry.
// Provider packages call this from their init functions.
func Register(name string, factory ProviderFactory) {
	defaultRegistry.Register(name, factory)
}

// Get returns a new provider instance from the default registry
func Get(name string) (PaymentProvider, error) {
	return defaultRegistry.Get(name)
}

// Names returns provider names registered in the default registry
func Names() []string {
	return defaultRegistry.Names()
}
