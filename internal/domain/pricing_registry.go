package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPricingNotFound indicates no pricing rule is registered for a model.
var ErrPricingNotFound = errors.New("pricing not found")

// InMemoryPricingRegistry stores pricing rules keyed by exact model id.
type InMemoryPricingRegistry struct {
	mu    sync.RWMutex
	rules map[string]PricingRule
}

// NewInMemoryPricingRegistry creates an empty registry.
func NewInMemoryPricingRegistry() *InMemoryPricingRegistry {
	return &InMemoryPricingRegistry{
		rules: make(map[string]PricingRule),
	}
}

// GetPricing returns the rule registered for model.
func (r *InMemoryPricingRegistry) GetPricing(_ context.Context, model string) (PricingRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rule, ok := r.rules[model]; ok {
		return rule, nil
	}

	return PricingRule{}, fmt.Errorf("%w for model: %s", ErrPricingNotFound, model)
}

// RegisterPricing stores or replaces the rule for model.
func (r *InMemoryPricingRegistry) RegisterPricing(_ context.Context, model string, rule PricingRule) error {
	if model == "" {
		return errors.New("model cannot be empty")
	}
	if err := rule.validate(); err != nil {
		return fmt.Errorf("pricing for model %s: %w", model, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules[model] = rule
	return nil
}
