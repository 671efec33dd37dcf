package domain_test

import (
	"context"
	"sync"
	"time"

	"github.com/davidbz/modelbench/internal/domain"
)

// fakeProvider is a scriptable Provider for testing.
type fakeProvider struct {
	mu sync.Mutex

	name         string
	models       []string
	listErr      error
	completeFunc func(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error)
	moderateFunc func(ctx context.Context, text string) (*domain.ModerationResult, error)

	requests   []domain.CompletionRequest
	moderated  []string
	listCalled int
}

func (f *fakeProvider) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeProvider) ListModels(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalled++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.models, nil
}

func (f *fakeProvider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	f.mu.Unlock()

	if f.completeFunc != nil {
		return f.completeFunc(ctx, req)
	}

	return &domain.CompletionResponse{
		ID:       "resp-" + req.Model,
		Model:    req.Model,
		Provider: f.Name(),
		Reply: domain.Message{
			Role:    domain.RoleModel,
			Content: "reply from " + req.Model,
		},
		Usage: domain.Usage{
			PromptTokens:     10,
			CompletionTokens: 5,
			TotalTokens:      15,
		},
		FinishTime: time.Now(),
	}, nil
}

func (f *fakeProvider) Moderate(ctx context.Context, text string) (*domain.ModerationResult, error) {
	f.mu.Lock()
	f.moderated = append(f.moderated, text)
	f.mu.Unlock()

	if f.moderateFunc != nil {
		return f.moderateFunc(ctx, text)
	}
	return &domain.ModerationResult{}, nil
}

// fakeBillingProvider adds billing endpoints to fakeProvider.
type fakeBillingProvider struct {
	*fakeProvider

	usageStart time.Time
	usageEnd   time.Time
}

func (f *fakeBillingProvider) Subscription(_ context.Context) (map[string]any, error) {
	return map[string]any{"plan": map[string]any{"id": "payg"}}, nil
}

func (f *fakeBillingProvider) Usage(_ context.Context, start, end time.Time) (map[string]any, error) {
	f.usageStart = start
	f.usageEnd = end
	return map[string]any{"total_usage": 42.0}, nil
}

// staticSource always resolves to the same provider, or fails.
type staticSource struct {
	provider domain.Provider
	err      error
	seen     []string
}

func (s *staticSource) ForCredential(_ context.Context, credential string) (domain.Provider, error) {
	s.seen = append(s.seen, credential)
	if s.err != nil {
		return nil, s.err
	}
	return s.provider, nil
}

// recordingPublisher captures published event types.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(_ context.Context, eventType string, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func testCatalog() *domain.ModelCatalog {
	catalog, err := domain.LoadCatalog("")
	if err != nil {
		panic(err)
	}
	return catalog
}

func newTestCalculator(ctx context.Context) *domain.StandardCostCalculator {
	registry := domain.NewInMemoryPricingRegistry()
	if err := testCatalog().RegisterPricing(ctx, registry); err != nil {
		panic(err)
	}
	return domain.NewStandardCostCalculator(registry)
}

func enabledSession(models ...domain.ModelDescriptor) *domain.Session {
	sess := domain.NewSession("sess-1", time.Now())
	sess.Initialize("sk-test", models)
	return sess
}

var (
	gpt4    = domain.ModelDescriptor{ID: "gpt-4", MaxTokens: 8000, Endpoint: domain.EndpointChat}
	turbo   = domain.ModelDescriptor{ID: "gpt-3.5-turbo", MaxTokens: 4096, Endpoint: domain.EndpointChat}
	davinci = domain.ModelDescriptor{ID: "text-davinci-003", MaxTokens: 4000, Endpoint: domain.EndpointCompletion}
)
