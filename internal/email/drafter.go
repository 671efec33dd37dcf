// Package email drafts professional emails from short topic notes with two
// chained completions: every topic is rewritten, then the rewrites are composed
// into one email.
package email

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/davidbz/modelbench/internal/domain"
	"github.com/davidbz/modelbench/internal/observability"
)

// Styles lists the writing styles a draft may use; the first is the default.
var Styles = []string{"formal", "motivated", "concerned", "disappointed"}

// Placeholder topics shown in empty form fields. They never count as content.
var placeholderTopics = []string{"topic 1", "topic 2 (optional)"}

const (
	rewritePrompt = "Rewrite the text to be elaborate and polite.\nAbbreviations need to be replaced.\nText: %s\nRewritten text:"
	composePrompt = "Write a professional email sounds %s and includes %s in that order.\n\nSender: %s\nRecipient: %s %s\n\nEmail Text:"
)

// Config contains drafting model settings.
type Config struct {
	Model       string  `env:"EMAIL_MODEL"       envDefault:"text-davinci-002"`
	Temperature float64 `env:"EMAIL_TEMPERATURE" envDefault:"0.8"`
	TopP        float64 `env:"EMAIL_TOP_P"       envDefault:"0.8"`
	BestOf      int     `env:"EMAIL_BEST_OF"     envDefault:"2"`
}

// Request is one drafting submission.
type Request struct {
	Credential string   `json:"api_key"`
	Sender     string   `json:"sender"`
	Recipient  string   `json:"recipient"`
	Style      string   `json:"style"`
	Topics     []string `json:"topics"`
}

// Draft is a composed email.
type Draft struct {
	Text     string       `json:"text"`
	Contents []string     `json:"contents"`
	Usage    domain.Usage `json:"usage"`
}

// Drafter chains completions into an email.
type Drafter struct {
	providers domain.ProviderSource
	events    domain.EventPublisher
	cfg       Config
}

// NewDrafter creates a drafter (DI constructor).
func NewDrafter(providers domain.ProviderSource, events domain.EventPublisher, cfg *Config) *Drafter {
	return &Drafter{
		providers: providers,
		events:    events,
		cfg:       *cfg,
	}
}

// Topics returns the topics that carry content, in order.
func Topics(raw []string) []string {
	topics := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(placeholderTopics, t) {
			continue
		}
		topics = append(topics, t)
	}
	return topics
}

// Validate reports every problem with the request at once.
func (r *Request) Validate() error {
	var errs []error

	if len(Topics(r.Topics)) == 0 {
		errs = append(errs, errors.New("please fill in some contents for your message"))
	}
	if strings.TrimSpace(r.Sender) == "" || strings.TrimSpace(r.Recipient) == "" {
		errs = append(errs, errors.New("sender and recipient names can not be empty"))
	}
	if r.Style != "" && !slices.Contains(Styles, r.Style) {
		errs = append(errs, fmt.Errorf("style must be one of %s", strings.Join(Styles, ", ")))
	}

	return errors.Join(errs...)
}

// Draft rewrites every topic and composes the final email.
func (d *Drafter) Draft(ctx context.Context, req *Request) (*Draft, error) {
	const op = "draft email"

	if req == nil {
		return nil, domain.InvalidInput(op, "request cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, domain.NewError(domain.KindInvalidInput, op, err)
	}
	if req.Credential == "" {
		return nil, domain.InvalidInput(op, "api key is required")
	}

	style := req.Style
	if style == "" {
		style = Styles[0]
	}

	provider, err := d.providers.ForCredential(ctx, req.Credential)
	if err != nil {
		var derr *domain.Error
		if errors.As(err, &derr) {
			return nil, err
		}
		return nil, domain.NewError(domain.KindUnauthorized, op, err)
	}

	ctx = observability.WithProvider(ctx, provider.Name())
	ctx = observability.WithModel(ctx, d.cfg.Model)
	logger := observability.FromContext(ctx)

	draft := &Draft{}

	topics := Topics(req.Topics)
	for i, topic := range topics {
		prompt := fmt.Sprintf(rewritePrompt, topic)
		text, usage, err := d.complete(ctx, provider, prompt, 3*len([]rune(topic)))
		if err != nil {
			return nil, fmt.Errorf("failed to rewrite topic %d: %w", i+1, err)
		}
		draft.Contents = append(draft.Contents, text)
		addUsage(&draft.Usage, usage)
	}

	var contents strings.Builder
	total := 0
	for i, text := range draft.Contents {
		fmt.Fprintf(&contents, "\nContent%d: %s", i+1, text)
		total += len([]rune(text))
	}

	prompt := fmt.Sprintf(composePrompt, style, contentNames(len(draft.Contents)), req.Sender, req.Recipient, contents.String())
	text, usage, err := d.complete(ctx, provider, prompt, 2*total)
	if err != nil {
		return nil, fmt.Errorf("failed to compose email: %w", err)
	}
	draft.Text = text
	addUsage(&draft.Usage, usage)

	logger.Info("email drafted",
		observability.Int("topics", len(topics)),
		observability.String("style", style),
		observability.Int("total_tokens", draft.Usage.TotalTokens))

	if d.events != nil {
		d.events.Publish(ctx, "email.drafted", map[string]interface{}{
			"topics":       len(topics),
			"style":        style,
			"total_tokens": draft.Usage.TotalTokens,
		})
	}

	return draft, nil
}

func (d *Drafter) complete(ctx context.Context, provider domain.Completer, prompt string, maxTokens int) (string, domain.Usage, error) {
	resp, err := provider.Complete(ctx, &domain.CompletionRequest{
		Model:      d.cfg.Model,
		Endpoint:   domain.EndpointCompletion,
		InitPrompt: prompt,
		Params: domain.GenerationParams{
			MaxTokens:   maxTokens,
			Temperature: d.cfg.Temperature,
			TopP:        d.cfg.TopP,
		},
		BestOf: d.cfg.BestOf,
	})
	if err != nil {
		return "", domain.Usage{}, err
	}

	return strings.TrimSpace(resp.Reply.Content), resp.Usage, nil
}

// contentNames lists the content labels the compose prompt refers to,
// e.g. "Content1 and Content2".
func contentNames(n int) string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Content%d", i+1)
	}
	if n <= 1 {
		return strings.Join(names, "")
	}
	return strings.Join(names[:n-1], ", ") + " and " + names[n-1]
}

func addUsage(total *domain.Usage, u domain.Usage) {
	total.PromptTokens += u.PromptTokens
	total.CompletionTokens += u.CompletionTokens
	total.TotalTokens += u.TotalTokens
	total.Cost += u.Cost
}
