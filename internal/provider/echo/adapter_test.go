package echo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/modelbench/internal/domain"
	"github.com/davidbz/modelbench/internal/provider/echo"
)

func newProvider() *echo.Provider {
	return echo.NewProvider(echo.Config{
		Models:       []string{"gpt-4", "gpt-3.5-turbo"},
		FlaggedTerms: []string{"Violence", " hate ", ""},
	})
}

func TestNewProvider(t *testing.T) {
	provider := newProvider()

	require.NotNil(t, provider)
	require.Equal(t, "echo", provider.Name())
}

func TestListModels(t *testing.T) {
	models, err := newProvider().ListModels(context.Background())

	require.NoError(t, err)
	require.Equal(t, []string{"gpt-4", "gpt-3.5-turbo"}, models)
}

func TestComplete_Success(t *testing.T) {
	provider := newProvider()
	ctx := context.Background()

	req := &domain.CompletionRequest{
		Model:      "gpt-4",
		InitPrompt: "Be nice.",
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "Hello world"},
		},
	}

	resp, err := provider.Complete(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, "gpt-4", resp.Model)
	require.Equal(t, "echo", resp.Provider)
	require.Equal(t, "[gpt-4] Hello world", resp.Reply.Content)
	require.Equal(t, domain.RoleModel, resp.Reply.Role)
	require.Equal(t, 5, resp.Usage.PromptTokens)     // "Be" "nice." "[user]:" "Hello" "world"
	require.Equal(t, 3, resp.Usage.CompletionTokens) // "[gpt-4]" "Hello" "world"
	require.Equal(t, 8, resp.Usage.TotalTokens)
	require.NotEmpty(t, resp.ID)
}

func TestComplete_NoUserMessage(t *testing.T) {
	resp, err := newProvider().Complete(context.Background(), &domain.CompletionRequest{
		Model:      "gpt-3.5-turbo",
		InitPrompt: "Tell me a joke.",
	})

	require.NoError(t, err)
	require.Equal(t, "[gpt-3.5-turbo]", resp.Reply.Content)
}

func TestComplete_TruncatesToMaxTokens(t *testing.T) {
	resp, err := newProvider().Complete(context.Background(), &domain.CompletionRequest{
		Model:    "gpt-4",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "one two three four"}},
		Params:   domain.GenerationParams{MaxTokens: 2},
	})

	require.NoError(t, err)
	require.Equal(t, "[gpt-4] one", resp.Reply.Content)
	require.Equal(t, 2, resp.Usage.CompletionTokens)
}

func TestComplete_NilRequest(t *testing.T) {
	resp, err := newProvider().Complete(context.Background(), nil)

	require.Error(t, err)
	require.Nil(t, resp)
	require.Contains(t, err.Error(), "request cannot be nil")
}

func TestComplete_UnsupportedModel(t *testing.T) {
	resp, err := newProvider().Complete(context.Background(), &domain.CompletionRequest{
		Model:    "unsupported-model",
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "Hello"}},
	})

	require.Error(t, err)
	require.Nil(t, resp)
	require.Equal(t, domain.KindProvider, domain.KindOf(err))
	require.Contains(t, err.Error(), "not supported")
}

func TestModerate(t *testing.T) {
	provider := newProvider()
	ctx := context.Background()

	tests := []struct {
		name       string
		text       string
		flagged    bool
		categories []string
	}{
		{name: "clean text", text: "Hello there", flagged: false},
		{name: "single term, case insensitive", text: "So much VIOLENCE", flagged: true, categories: []string{"violence"}},
		{name: "terms in configured order", text: "hate and violence", flagged: true, categories: []string{"violence", "hate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := provider.Moderate(ctx, tt.text)

			require.NoError(t, err)
			require.Equal(t, tt.flagged, result.Flagged)
			require.Equal(t, tt.categories, result.Categories)
		})
	}
}

func TestNewFactory(t *testing.T) {
	factory := echo.NewFactory(echo.Config{Models: []string{"gpt-4"}})

	provider, err := factory(context.Background(), "anything")
	require.NoError(t, err)
	require.Equal(t, "echo", provider.Name())

	_, err = factory(context.Background(), "")
	require.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}
