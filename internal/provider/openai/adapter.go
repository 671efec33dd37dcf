// Package openai provides an adapter for the OpenAI API using the official SDK.
// It implements the domain.Provider interface and handles conversion between
// domain types and SDK types. Chat models go through chat completions; legacy
// completion models get a flattened transcript prompt.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"github.com/davidbz/modelbench/internal/domain"
	"github.com/davidbz/modelbench/internal/observability"
)

const providerName = "openai"

// Provider implements the domain.Provider interface for OpenAI.
type Provider struct {
	client          openai.Client
	name            string
	billingBaseURL  string
	moderationModel string
}

// NewProvider creates a new OpenAI provider.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		// Retries are never automatic; a failed model is reported and the round moves on.
		option.WithMaxRetries(max(config.MaxRetries, 0)),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Organization != "" {
		opts = append(opts, option.WithOrganization(config.Organization))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	return &Provider{
		client:          openai.NewClient(opts...),
		name:            providerName,
		billingBaseURL:  config.BillingBaseURL,
		moderationModel: config.ModerationModel,
	}, nil
}

// NewFactory returns a factory that binds the configuration to a user credential.
func NewFactory(config Config) domain.ProviderFactory {
	return func(_ context.Context, credential string) (domain.Provider, error) {
		cfg := config
		cfg.APIKey = credential

		provider, err := NewProvider(cfg)
		if err != nil {
			return nil, domain.NewError(domain.KindUnauthorized, "new provider", err)
		}
		return provider, nil
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// ListModels returns every model identifier the key can access.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	logger := observability.FromContext(ctx)
	logger.Debug("listing OpenAI models")

	page, err := p.client.Models.List(ctx)
	if err != nil {
		logger.Error("OpenAI model listing failed", observability.Error(err))
		return nil, classify("list models", err)
	}

	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}

	return ids, nil
}

// Complete sends a completion request and returns the full response.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	switch req.Endpoint {
	case domain.EndpointCompletion:
		return p.completeLegacy(ctx, req)
	case domain.EndpointChat, "":
		return p.completeChat(ctx, req)
	default:
		return nil, domain.NewError(domain.KindProvider, "complete",
			fmt.Errorf("unsupported endpoint %q", req.Endpoint))
	}
}

func (p *Provider) completeChat(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI chat completions API")

	resp, err := p.client.Chat.Completions.New(ctx, toChatParams(req))
	if err != nil {
		logger.Error("OpenAI API call failed", observability.Error(err))
		return nil, classify("complete", err)
	}

	logger.Debug("OpenAI API call succeeded",
		observability.Int("prompt_tokens", int(resp.Usage.PromptTokens)),
		observability.Int("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &domain.CompletionResponse{
		ID:       resp.ID,
		Model:    resp.Model,
		Provider: p.name,
		Reply:    domain.Message{Role: domain.RoleModel, Content: content, CreatedAt: time.Now()},
		Usage: domain.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		FinishTime: time.Now(),
	}, nil
}

func (p *Provider) completeLegacy(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI completions API")

	resp, err := p.client.Completions.New(ctx, toCompletionParams(req))
	if err != nil {
		logger.Error("OpenAI API call failed", observability.Error(err))
		return nil, classify("complete", err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = cleanCompletion(resp.Choices[0].Text)
	}

	return &domain.CompletionResponse{
		ID:       resp.ID,
		Model:    resp.Model,
		Provider: p.name,
		Reply:    domain.Message{Role: domain.RoleModel, Content: content, CreatedAt: time.Now()},
		Usage: domain.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		FinishTime: time.Now(),
	}, nil
}

// Moderate checks text with the moderation endpoint. Flagged categories are
// returned in the order the provider lists them.
func (p *Provider) Moderate(ctx context.Context, text string) (*domain.ModerationResult, error) {
	params := openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{OfString: openai.String(text)},
	}
	if p.moderationModel != "" {
		params.Model = openai.ModerationModel(p.moderationModel)
	}

	resp, err := p.client.Moderations.New(ctx, params)
	if err != nil {
		observability.FromContext(ctx).Error("OpenAI moderation call failed", observability.Error(err))
		return nil, classify("moderate", err)
	}

	if len(resp.Results) == 0 {
		return nil, domain.NewError(domain.KindProvider, "moderate", errors.New("moderation returned no results"))
	}

	return &domain.ModerationResult{
		Flagged:    resp.Results[0].Flagged,
		Categories: flaggedCategories(resp.RawJSON()),
	}, nil
}

// flaggedCategories walks the raw categories object so the provider's key order is kept.
func flaggedCategories(raw string) []string {
	var categories []string
	gjson.Get(raw, "results.0.categories").ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.True {
			categories = append(categories, key.String())
		}
		return true
	})
	return categories
}

// toChatParams converts a domain request to SDK ChatCompletionNewParams.
// The initial prompt becomes the system message ahead of the history.
func toChatParams(req *domain.CompletionRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.InitPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.InitPrompt))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleModel:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:            openai.ChatModel(req.Model),
		Messages:         messages,
		Temperature:      openai.Float(req.Params.Temperature),
		TopP:             openai.Float(req.Params.TopP),
		FrequencyPenalty: openai.Float(req.Params.FrequencyPenalty),
		PresencePenalty:  openai.Float(req.Params.PresencePenalty),
	}

	if req.Params.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.Params.MaxTokens))
	}

	return params
}

// toCompletionParams converts a domain request to SDK CompletionNewParams.
func toCompletionParams(req *domain.CompletionRequest) openai.CompletionNewParams {
	params := openai.CompletionNewParams{
		Model:            openai.CompletionNewParamsModel(req.Model),
		Temperature:      openai.Float(req.Params.Temperature),
		TopP:             openai.Float(req.Params.TopP),
		FrequencyPenalty: openai.Float(req.Params.FrequencyPenalty),
		PresencePenalty:  openai.Float(req.Params.PresencePenalty),
	}

	// A request without history is a one-shot prompt sent verbatim.
	if len(req.Messages) == 0 {
		params.Prompt = openai.CompletionNewParamsPromptUnion{OfString: openai.String(req.InitPrompt)}
	} else {
		params.Prompt = openai.CompletionNewParamsPromptUnion{OfString: openai.String(Transcript(req.InitPrompt, req.Messages))}
		params.Stop = openai.CompletionNewParamsStopUnion{OfString: openai.String(StopSequence)}
	}

	if req.Params.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.Params.MaxTokens))
	}

	if req.BestOf > 0 {
		params.BestOf = openai.Int(int64(req.BestOf))
	}

	return params
}
