package domain

import (
	"context"
	"time"
)

// ModelLister enumerates the model identifiers a credential can access.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Completer requests a single completion.
type Completer interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// Moderator checks text against the provider's content policy.
type Moderator interface {
	Moderate(ctx context.Context, text string) (*ModerationResult, error)
}

// Provider represents a hosted language-model API bound to one credential.
type Provider interface {
	ModelLister
	Completer
	Moderator

	// Name returns the provider identifier.
	Name() string
}

// BillingProvider exposes read-only account cost information.
// Payloads are passed through for display without interpretation.
type BillingProvider interface {
	Subscription(ctx context.Context) (map[string]any, error)
	Usage(ctx context.Context, start, end time.Time) (map[string]any, error)
}

// ProviderFactory builds a Provider for a user-supplied credential.
type ProviderFactory func(ctx context.Context, credential string) (Provider, error)

// ProviderSource resolves the active provider for a credential.
type ProviderSource interface {
	ForCredential(ctx context.Context, credential string) (Provider, error)
}

// ProviderRegistry manages available provider factories.
type ProviderRegistry interface {
	ProviderSource

	// Register adds a provider factory under a name.
	Register(ctx context.Context, name string, factory ProviderFactory) error

	// Get retrieves a provider factory by name.
	Get(ctx context.Context, name string) (ProviderFactory, error)

	// List returns all registered provider names.
	List(ctx context.Context) ([]string, error)
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
