// Package echo provides an offline provider that echoes back input messages.
// It implements the domain.Provider interface without making external API calls,
// providing deterministic responses for development and tests.
package echo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/davidbz/modelbench/internal/domain"
	"github.com/davidbz/modelbench/internal/observability"
)

const providerName = "echo"

// Config contains echo provider settings.
type Config struct {
	Models       []string `env:"ECHO_MODELS"        envSeparator:"," envDefault:"gpt-4,gpt-3.5-turbo,text-davinci-003"`
	FlaggedTerms []string `env:"ECHO_FLAGGED_TERMS" envSeparator:","`
}

// Provider implements the domain.Provider interface for echo testing.
type Provider struct {
	name         string
	models       []string
	flaggedTerms []string
}

// NewProvider creates a new echo provider.
// No credential is checked as this provider operates entirely in-memory.
func NewProvider(config Config) *Provider {
	terms := make([]string, 0, len(config.FlaggedTerms))
	for _, t := range config.FlaggedTerms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}

	return &Provider{
		name:         providerName,
		models:       slices.Clone(config.Models),
		flaggedTerms: terms,
	}
}

// NewFactory returns a factory that accepts any non-empty credential.
func NewFactory(config Config) domain.ProviderFactory {
	return func(_ context.Context, credential string) (domain.Provider, error) {
		if credential == "" {
			return nil, domain.NewError(domain.KindUnauthorized, "new provider", errors.New("API key is required"))
		}
		return NewProvider(config), nil
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// ListModels returns the configured model identifiers.
func (p *Provider) ListModels(_ context.Context) ([]string, error) {
	return slices.Clone(p.models), nil
}

// Complete echoes the last user message and reports word-count usage.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if !slices.Contains(p.models, req.Model) {
		return nil, domain.NewError(domain.KindProvider, "complete",
			fmt.Errorf("model %s is not supported by echo provider", req.Model))
	}

	logger := observability.FromContext(ctx)
	logger.Debug("echoing request")

	prompt := buildPrompt(req.InitPrompt, req.Messages)
	reply := buildReply(req.Model, req.Messages)

	// Count tokens (simple word-based counting)
	promptTokens := countTokens(prompt)
	completionTokens := countTokens(reply)
	if req.Params.MaxTokens > 0 && completionTokens > req.Params.MaxTokens {
		reply = strings.Join(strings.Fields(reply)[:req.Params.MaxTokens], " ")
		completionTokens = req.Params.MaxTokens
	}

	logger.Debug("echo completed",
		observability.Int("prompt_tokens", promptTokens),
		observability.Int("completion_tokens", completionTokens),
	)

	return &domain.CompletionResponse{
		ID:       fmt.Sprintf("echo-%d", time.Now().UnixNano()),
		Model:    req.Model,
		Provider: p.name,
		Reply:    domain.Message{Role: domain.RoleModel, Content: reply, CreatedAt: time.Now()},
		Usage: domain.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		FinishTime: time.Now(),
	}, nil
}

// Moderate flags text containing any configured term; the category is the term itself.
func (p *Provider) Moderate(_ context.Context, text string) (*domain.ModerationResult, error) {
	lower := strings.ToLower(text)

	result := &domain.ModerationResult{}
	for _, term := range p.flaggedTerms {
		if strings.Contains(lower, term) {
			result.Flagged = true
			result.Categories = append(result.Categories, term)
		}
	}

	return result, nil
}

// buildPrompt flattens what a real model would have read.
func buildPrompt(initPrompt string, messages []domain.Message) string {
	var builder strings.Builder
	if initPrompt != "" {
		builder.WriteString(initPrompt)
		builder.WriteString("\n")
	}
	for _, msg := range messages {
		builder.WriteString(fmt.Sprintf("[%s]: %s\n", msg.Role, msg.Content))
	}
	return builder.String()
}

// buildReply echoes the most recent user message.
func buildReply(model string, messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return fmt.Sprintf("[%s] %s", model, messages[i].Content)
		}
	}
	return fmt.Sprintf("[%s]", model)
}

// countTokens performs simple word-based token counting.
func countTokens(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Fields(content))
}
