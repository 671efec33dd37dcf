package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/option"

	"github.com/davidbz/modelbench/internal/observability"
)

const (
	subscriptionPath = "dashboard/billing/subscription"
	usagePath        = "dashboard/billing/usage"
)

// Subscription returns the account's subscription details as reported by the dashboard.
func (p *Provider) Subscription(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := p.client.Get(ctx, subscriptionPath, nil, &out, p.billingOptions()...); err != nil {
		observability.FromContext(ctx).Error("OpenAI subscription lookup failed", observability.Error(err))
		return nil, classify("subscription", err)
	}
	return out, nil
}

// Usage returns the account's usage between start and end, inclusive dates.
func (p *Provider) Usage(ctx context.Context, start, end time.Time) (map[string]any, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("usage range ends before it starts: %s < %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	opts := append(p.billingOptions(),
		option.WithQuery("start_date", start.Format(time.DateOnly)),
		option.WithQuery("end_date", end.Format(time.DateOnly)),
	)

	var out map[string]any
	if err := p.client.Get(ctx, usagePath, nil, &out, opts...); err != nil {
		observability.FromContext(ctx).Error("OpenAI usage lookup failed", observability.Error(err))
		return nil, classify("usage", err)
	}
	return out, nil
}

func (p *Provider) billingOptions() []option.RequestOption {
	var opts []option.RequestOption
	if p.billingBaseURL != "" {
		opts = append(opts, option.WithBaseURL(p.billingBaseURL))
	}
	return opts
}
