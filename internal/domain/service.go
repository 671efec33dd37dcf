package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/modelbench/internal/observability"
)

// Severity grades a user-facing notice.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notice is a message the presentation layer shows to the user.
type Notice struct {
	Severity Severity  `json:"severity"`
	Kind     ErrorKind `json:"kind,omitempty"`
	Model    string    `json:"model,omitempty"`
	Text     string    `json:"text"`
}

// Outcome is the result of one user action on a session.
type Outcome struct {
	Notices    []Notice     `json:"notices"`
	Dispatched bool         `json:"dispatched"`
	Round      *RoundResult `json:"round,omitempty"`
	// Err is the action-level failure, if any; per-model failures stay in Round.
	Err error `json:"-"`
}

func (o *Outcome) notify(severity Severity, kind ErrorKind, model, text string) {
	o.Notices = append(o.Notices, Notice{Severity: severity, Kind: kind, Model: model, Text: text})
}

func (o *Outcome) fail(err error) {
	o.Err = err
	o.notify(SeverityError, KindOf(err), "", err.Error())
}

// BillingReport is the account-level cost information shown under the comparison.
type BillingReport struct {
	Subscription map[string]any `json:"subscription"`
	Usage        map[string]any `json:"usage"`
	StartDate    string         `json:"start_date"`
	EndDate      string         `json:"end_date"`
}

// ComparisonService implements the comparison tool's actions.
type ComparisonService struct {
	providers  ProviderSource
	prober     *ModelProber
	gate       *ModerationGate
	dispatcher *Dispatcher
	events     EventPublisher
}

// NewComparisonService creates the service (DI constructor).
func NewComparisonService(
	providers ProviderSource,
	prober *ModelProber,
	gate *ModerationGate,
	dispatcher *Dispatcher,
	events EventPublisher,
) *ComparisonService {
	return &ComparisonService{
		providers:  providers,
		prober:     prober,
		gate:       gate,
		dispatcher: dispatcher,
		events:     events,
	}
}

// VerifyKey checks a credential against the provider and, on success, selects
// the session's models and enables it.
func (s *ComparisonService) VerifyKey(ctx context.Context, sess *Session, credential string) Outcome {
	var out Outcome

	if credential == "" {
		out.fail(InvalidInput("verify key", "an API key is required"))
		return out
	}

	provider, err := s.providers.ForCredential(ctx, credential)
	if err != nil {
		out.fail(asUnauthorized(err))
		return out
	}

	ctx = observability.WithProvider(ctx, provider.Name())
	if probeErr := s.prober.Probe(ctx, provider, sess, credential); probeErr != nil {
		out.fail(probeErr)
		return out
	}

	s.publish(ctx, "session.verified", map[string]interface{}{
		"session_id": sess.ID,
		"models":     sess.ModelIDs(),
	})

	return out
}

// FetchResponses runs one dispatch round: moderation of both texts, then the
// sequential loop over every selected model.
func (s *ComparisonService) FetchResponses(
	ctx context.Context,
	sess *Session,
	in RoundInput,
	progress ProgressFunc,
) Outcome {
	var out Outcome

	if sess.Disabled {
		out.fail(InvalidInput("fetch responses", "enter a valid API key before fetching responses"))
		return out
	}
	if err := in.Validate(); err != nil {
		out.fail(NewError(KindInvalidInput, "fetch responses", err))
		return out
	}

	provider, err := s.providers.ForCredential(ctx, sess.Credential)
	if err != nil {
		out.fail(asUnauthorized(err))
		return out
	}
	ctx = observability.WithProvider(ctx, provider.Name())

	moderated := true
	for _, check := range []struct {
		subject string
		text    string
	}{
		{"prompt", in.InitPrompt},
		{"most recent follow up message", in.FollowUp},
	} {
		verdict := s.gate.Check(ctx, provider, check.subject, check.text)
		if verdict.Message != "" {
			kind := KindOf(verdict.Err)
			if kind == KindUnknown {
				kind = KindTransport
			}
			out.notify(SeverityError, kind, "", verdict.Message)
		}
		if !verdict.Pass {
			moderated = false
		}
	}

	if in.InitPrompt == "" {
		out.notify(SeverityInfo, KindInvalidInput, "", "enter an initial prompt to fetch responses")
		return out
	}
	if !moderated {
		return out
	}

	sess.InitPrompt = in.InitPrompt
	round := s.dispatcher.Run(ctx, provider, sess, in, progress)
	out.Dispatched = true
	out.Round = round

	for _, failed := range round.Failures() {
		text := failed.Err.Error()
		if KindOf(failed.Err) == KindRateLimited {
			text = fmt.Sprintf("%s\n\n%s", text, RateLimitHint)
		}
		out.notify(SeverityError, KindOf(failed.Err), failed.Model, text)
	}

	s.publish(ctx, "round.completed", map[string]interface{}{
		"session_id": sess.ID,
		"models":     len(round.Results),
		"failures":   len(round.Failures()),
	})

	return out
}

// Reset clears the session's histories and counters when there is something to clear.
func (s *ComparisonService) Reset(ctx context.Context, sess *Session) Outcome {
	var out Outcome

	if !sess.Reset() {
		out.notify(SeverityInfo, KindUnknown, "", "nothing to reset")
		return out
	}

	s.publish(ctx, "session.reset", map[string]interface{}{
		"session_id": sess.ID,
	})

	return out
}

// Billing fetches the subscription and month-to-date usage for the session's credential.
func (s *ComparisonService) Billing(ctx context.Context, sess *Session, today time.Time) (*BillingReport, error) {
	if sess.Disabled {
		return nil, InvalidInput("billing", "enter a valid API key first")
	}

	provider, err := s.providers.ForCredential(ctx, sess.Credential)
	if err != nil {
		return nil, asUnauthorized(err)
	}

	billing, ok := provider.(BillingProvider)
	if !ok {
		return nil, NewError(KindProvider, "billing",
			fmt.Errorf("provider %s does not expose billing information", provider.Name()))
	}

	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	subscription, err := billing.Subscription(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscription details: %w", err)
	}

	usage, err := billing.Usage(ctx, start, today)
	if err != nil {
		return nil, fmt.Errorf("usage details: %w", err)
	}

	return &BillingReport{
		Subscription: subscription,
		Usage:        usage,
		StartDate:    start.Format(time.DateOnly),
		EndDate:      today.Format(time.DateOnly),
	}, nil
}

func (s *ComparisonService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events != nil {
		s.events.Publish(ctx, eventType, data)
	}
}

func asUnauthorized(err error) error {
	var derr *Error
	if errors.As(err, &derr) {
		return err
	}
	return NewError(KindUnauthorized, "provider", err)
}
