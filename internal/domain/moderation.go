package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/davidbz/modelbench/internal/observability"
)

// Verdict is the moderation gate's decision for one text.
type Verdict struct {
	Pass       bool
	Flagged    bool
	Categories []string
	// Message is set when the user should be told something: a flagged text
	// or a failed moderation call.
	Message string
	Err     error
}

// ModerationGate checks user text before it is dispatched.
type ModerationGate struct {
	failClosed bool
}

// NewModerationGate creates a gate. With failClosed a failed moderation call
// blocks dispatch; otherwise it is reported and dispatch proceeds.
func NewModerationGate(failClosed bool) *ModerationGate {
	return &ModerationGate{failClosed: failClosed}
}

// Check moderates text. subject names the text in user-facing messages.
func (g *ModerationGate) Check(ctx context.Context, moderator Moderator, subject, text string) Verdict {
	if text == "" {
		return Verdict{Pass: true}
	}

	logger := observability.FromContext(ctx)

	result, err := moderator.Moderate(ctx, text)
	if err != nil {
		logger.Error("moderation call failed",
			observability.String("subject", subject),
			observability.Bool("fail_closed", g.failClosed),
			observability.Error(err))
		return Verdict{
			Pass:    !g.failClosed,
			Message: err.Error(),
			Err:     err,
		}
	}

	if !result.Flagged {
		return Verdict{Pass: true}
	}

	logger.Warn("text flagged by moderation",
		observability.String("subject", subject),
		observability.Strings("categories", result.Categories))

	return Verdict{
		Pass:       false,
		Flagged:    true,
		Categories: result.Categories,
		Message:    flaggedMessage(subject, result.Categories),
		Err: NewError(KindModerated, "moderate",
			fmt.Errorf("%s flagged: %s", subject, strings.Join(result.Categories, ", "))),
	}
}

func flaggedMessage(subject string, categories []string) string {
	return fmt.Sprintf(
		"Your %s has been flagged by the content moderation endpoint due to the following categories: %s. "+
			"In order to comply with the provider's usage policy, we cannot send this %s to the models. "+
			"Please modify your %s and try again.",
		subject, strings.Join(categories, ", "), subject, subject)
}
