package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/davidbz/modelbench/internal/domain"
	"github.com/davidbz/modelbench/internal/observability"
)

// Registry implements the ProviderRegistry interface.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]domain.ProviderFactory
	active    string
}

// NewRegistry creates a new provider registry. active names the factory used
// for session credentials.
func NewRegistry(active string) *Registry {
	return &Registry{
		mu:        sync.RWMutex{},
		factories: make(map[string]domain.ProviderFactory),
		active:    active,
	}
}

// Register adds a provider factory to the registry.
func (r *Registry) Register(_ context.Context, name string, factory domain.ProviderFactory) error {
	if factory == nil {
		return errors.New("provider factory cannot be nil")
	}

	if name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// Get retrieves a provider factory by name.
func (r *Registry) Get(_ context.Context, providerName string) (domain.ProviderFactory, error) {
	if providerName == "" {
		return nil, errors.New("provider name cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[providerName]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", providerName)
	}

	return factory, nil
}

// List returns all registered provider names in sorted order.
func (r *Registry) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// ForCredential builds the active provider for a credential.
func (r *Registry) ForCredential(ctx context.Context, credential string) (domain.Provider, error) {
	factory, err := r.Get(ctx, r.active)
	if err != nil {
		return nil, fmt.Errorf("active provider: %w", err)
	}

	provider, err := factory(ctx, credential)
	if err != nil {
		observability.FromContext(ctx).Warn("provider construction failed",
			observability.String("provider", r.active),
			observability.Error(err))
		return nil, err
	}

	return provider, nil
}
