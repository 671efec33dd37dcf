package domain

import (
	"context"
	"errors"

	"github.com/davidbz/modelbench/internal/observability"
)

const tokensPerUnit = 1000.0

// PricingRule is the USD price of a model per 1K tokens.
// A rule may price prompt and completion tokens separately, total tokens
// at a flat rate, or both.
type PricingRule struct {
	PromptPer1K     float64 `yaml:"input_per_1k"  json:"input_per_1k"`
	CompletionPer1K float64 `yaml:"output_per_1k" json:"output_per_1k"`
	TotalPer1K      float64 `yaml:"total_per_1k"  json:"total_per_1k"`
}

// Cost prices one response.
func (r PricingRule) Cost(usage Usage) float64 {
	return (r.PromptPer1K*float64(usage.PromptTokens) +
		r.CompletionPer1K*float64(usage.CompletionTokens) +
		r.TotalPer1K*float64(usage.TotalTokens)) / tokensPerUnit
}

func (r PricingRule) validate() error {
	if r.PromptPer1K < 0 || r.CompletionPer1K < 0 || r.TotalPer1K < 0 {
		return errors.New("pricing rates cannot be negative")
	}
	return nil
}

// CostCalculator prices token usage per model.
type CostCalculator interface {
	Calculate(ctx context.Context, model string, usage Usage) (float64, error)
}

// PricingRegistry maps model ids to pricing rules.
type PricingRegistry interface {
	GetPricing(ctx context.Context, model string) (PricingRule, error)
	RegisterPricing(ctx context.Context, model string, rule PricingRule) error
}

// StandardCostCalculator prices usage with the rules of a PricingRegistry.
type StandardCostCalculator struct {
	rules PricingRegistry
}

// NewStandardCostCalculator creates a new cost calculator.
func NewStandardCostCalculator(rules PricingRegistry) *StandardCostCalculator {
	return &StandardCostCalculator{rules: rules}
}

// Calculate computes the cost of one response from its token counts.
// Models without a pricing rule cost zero and produce a warning.
func (c *StandardCostCalculator) Calculate(ctx context.Context, model string, usage Usage) (float64, error) {
	if model == "" {
		return 0, errors.New("model cannot be empty")
	}

	rule, err := c.rules.GetPricing(ctx, model)
	if err != nil {
		observability.FromContext(ctx).Warn("no pricing rule for model, cost recorded as zero",
			observability.String("model", model),
			observability.Error(err))
		//nolint:nilerr // an unpriced model is not a failed response
		return 0, nil
	}

	return rule.Cost(usage), nil
}
