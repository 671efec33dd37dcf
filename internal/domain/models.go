package domain

import (
	"errors"
	"fmt"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Endpoint selects which provider API serves a model.
type Endpoint string

const (
	// EndpointChat is the chat-completions API.
	EndpointChat Endpoint = "chat"
	// EndpointCompletion is the legacy text-completions API.
	EndpointCompletion Endpoint = "completion"
)

// Input limits carried over from the comparison form.
const (
	MaxInitPromptChars = 2000
	MaxFollowUpChars   = 1000
	MaxResponseTokens  = 1000
)

// Message is a single entry in a model's conversation history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"message"`
	CreatedAt time.Time `json:"created_date"`
}

// GenerationParams is shared by every model in a dispatch round.
type GenerationParams struct {
	MaxTokens        int     `json:"max_tokens"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

// DefaultGenerationParams returns the form defaults.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		MaxTokens:        300,
		Temperature:      0.7,
		TopP:             1.0,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}
}

// Validate checks every parameter against the ranges the form allows.
func (p GenerationParams) Validate() error {
	if p.MaxTokens < 0 || p.MaxTokens > MaxResponseTokens {
		return fmt.Errorf("max_tokens must be between 0 and %d", MaxResponseTokens)
	}

	unit := []struct {
		name  string
		value float64
	}{
		{"temperature", p.Temperature},
		{"top_p", p.TopP},
		{"frequency_penalty", p.FrequencyPenalty},
		{"presence_penalty", p.PresencePenalty},
	}
	for _, u := range unit {
		if u.value < 0 || u.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", u.name)
		}
	}

	return nil
}

// CompletionRequest is what the dispatch loop sends for one model.
type CompletionRequest struct {
	Model      string           `json:"model"`
	Endpoint   Endpoint         `json:"endpoint"`
	Messages   []Message        `json:"messages"`
	InitPrompt string           `json:"init_prompt,omitempty"`
	Params     GenerationParams `json:"params"`
	BestOf     int              `json:"best_of,omitempty"`
}

// CompletionResponse carries the model's reply and the provider-reported usage.
type CompletionResponse struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	Provider   string    `json:"provider"`
	Reply      Message   `json:"reply"`
	Usage      Usage     `json:"usage"`
	FinishTime time.Time `json:"finish_time"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost"`
}

// ModerationResult is the moderation endpoint's verdict for one text.
type ModerationResult struct {
	Flagged    bool     `json:"flagged"`
	Categories []string `json:"flagged_categories"`
}

// RoundInput is the user's submission for one dispatch round.
type RoundInput struct {
	InitPrompt string           `json:"init_prompt"`
	FollowUp   string           `json:"follow_up"`
	Params     GenerationParams `json:"params"`
}

// Validate rejects malformed round input.
func (in RoundInput) Validate() error {
	var errs []error
	if n := len([]rune(in.InitPrompt)); n > MaxInitPromptChars {
		errs = append(errs, fmt.Errorf("initial prompt is %d characters, limit is %d", n, MaxInitPromptChars))
	}
	if n := len([]rune(in.FollowUp)); n > MaxFollowUpChars {
		errs = append(errs, fmt.Errorf("follow up message is %d characters, limit is %d", n, MaxFollowUpChars))
	}
	if err := in.Params.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
