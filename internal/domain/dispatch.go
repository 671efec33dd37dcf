package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/modelbench/internal/observability"
)

// RateLimitHint is appended to rate-limit notices.
const RateLimitHint = "Friendly reminder: if you are using a free-trial API key, this error is caused by " +
	"the limited rate limits associated with the key. Upgrading to a pay-as-you-go plan lifts them."

// Progress reports how far a dispatch round has advanced.
type Progress struct {
	Model    string  `json:"model"`
	Index    int     `json:"index"`
	Total    int     `json:"total"`
	Fraction float64 `json:"fraction"`
	Done     bool    `json:"done"`
}

// ProgressFunc receives progress updates between provider calls.
type ProgressFunc func(Progress)

// ModelResult is the per-model record of one dispatch round.
type ModelResult struct {
	Model string   `json:"model"`
	Reply *Message `json:"reply,omitempty"`
	Usage Usage    `json:"usage"`
	Err   error    `json:"-"`
}

// Failed reports whether the model's attempt failed.
func (r ModelResult) Failed() bool {
	return r.Err != nil
}

// RoundResult collects every model's outcome in dispatch order.
type RoundResult struct {
	Results []ModelResult `json:"results"`
}

// Failures returns the results that carry an error.
func (r *RoundResult) Failures() []ModelResult {
	var failed []ModelResult
	for _, res := range r.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Dispatcher runs dispatch rounds over a session's models, one at a time.
type Dispatcher struct {
	costCalculator CostCalculator
	now            func() time.Time
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(costCalculator CostCalculator) *Dispatcher {
	return &Dispatcher{
		costCalculator: costCalculator,
		now:            time.Now,
	}
}

// Run sends the round to every selected model in order. A failing model is
// recorded and the loop moves on; no failure aborts the round.
func (d *Dispatcher) Run(
	ctx context.Context,
	completer Completer,
	sess *Session,
	in RoundInput,
	progress ProgressFunc,
) *RoundResult {
	if progress == nil {
		progress = func(Progress) {}
	}

	total := len(sess.Models)
	round := &RoundResult{Results: make([]ModelResult, 0, total)}

	for index, model := range sess.Models {
		progress(Progress{
			Model:    model.ID,
			Index:    index,
			Total:    total,
			Fraction: float64(index) / float64(total),
		})

		result := d.attempt(observability.WithModel(ctx, model.ID), completer, sess, model, in)
		round.Results = append(round.Results, result)

		progress(Progress{
			Model:    model.ID,
			Index:    index,
			Total:    total,
			Fraction: float64(index+1) / float64(total),
			Done:     index+1 == total,
		})
	}

	return round
}

// attempt performs one model's step of the round. Panics from the provider
// are converted into a provider error for that model.
func (d *Dispatcher) attempt(
	ctx context.Context,
	completer Completer,
	sess *Session,
	model ModelDescriptor,
	in RoundInput,
) (result ModelResult) {
	result.Model = model.ID
	logger := observability.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			result.Reply = nil
			result.Err = NewError(KindProvider, "complete", fmt.Errorf("panic: %v", r)).WithModel(model.ID)
			logger.Error("completion panicked", observability.Any("panic", r))
		}
	}()

	conv := sess.Conversation(model.ID)
	if in.FollowUp != "" {
		conv.Append(Message{Role: RoleUser, Content: in.FollowUp, CreatedAt: d.now()})
	}

	params := in.Params
	if model.MaxTokens > 0 && params.MaxTokens > model.MaxTokens {
		params.MaxTokens = model.MaxTokens
	}

	req := &CompletionRequest{
		Model:      model.ID,
		Endpoint:   model.Endpoint,
		Messages:   append([]Message(nil), conv.Messages...),
		InitPrompt: in.InitPrompt,
		Params:     params,
	}

	resp, err := completer.Complete(ctx, req)
	if err != nil {
		result.Err = classifyDispatchError(model.ID, err)
		logger.Error("completion failed",
			observability.String("kind", KindOf(result.Err).String()),
			observability.Error(err))
		return result
	}
	if resp == nil {
		result.Err = NewError(KindProvider, "complete", errors.New("empty response")).WithModel(model.ID)
		return result
	}

	reply := resp.Reply
	reply.Role = RoleModel
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = d.now()
	}
	conv.Append(reply)

	usage := resp.Usage
	cost, costErr := d.costCalculator.Calculate(ctx, model.ID, usage)
	if costErr != nil {
		logger.Warn("cost calculation failed", observability.Error(costErr))
	}
	usage.Cost = cost
	conv.Record(usage)

	logger.Info("completion recorded",
		observability.Int("total_tokens", usage.TotalTokens),
		observability.Int("prompt_tokens", usage.PromptTokens),
		observability.Int("completion_tokens", usage.CompletionTokens),
		observability.Float64("cost", usage.Cost))

	result.Reply = &reply
	result.Usage = usage
	return result
}

func classifyDispatchError(model string, err error) error {
	var derr *Error
	if errors.As(err, &derr) {
		if derr.Model == "" {
			return derr.WithModel(model)
		}
		return derr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTransport, "complete", err).WithModel(model)
	}
	return NewError(KindProvider, "complete", err).WithModel(model)
}
