package http

import (
	"time"

	"github.com/davidbz/modelbench/internal/domain"
)

// modelColumn is one model's side of the comparison.
type modelColumn struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	Endpoint  domain.Endpoint  `json:"endpoint"`
	Messages  []domain.Message `json:"messages"`
	Usage     domain.Usage     `json:"usage"`
}

// sessionView is the client-facing session. The credential is never included.
type sessionView struct {
	ID         string        `json:"id"`
	Disabled   bool          `json:"disabled"`
	InitPrompt string        `json:"init_prompt,omitempty"`
	Models     []modelColumn `json:"models"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type actionResponse struct {
	Session sessionView    `json:"session"`
	Outcome domain.Outcome `json:"outcome"`
}

func newSessionView(sess *domain.Session) sessionView {
	view := sessionView{
		ID:         sess.ID,
		Disabled:   sess.Disabled,
		InitPrompt: sess.InitPrompt,
		Models:     make([]modelColumn, 0, len(sess.Models)),
		CreatedAt:  sess.CreatedAt,
		UpdatedAt:  sess.UpdatedAt,
	}

	for _, m := range sess.Models {
		conv := sess.Conversation(m.ID)
		view.Models = append(view.Models, modelColumn{
			Model:     m.ID,
			MaxTokens: m.MaxTokens,
			Endpoint:  m.Endpoint,
			Messages:  conv.Messages,
			Usage:     conv.Usage,
		})
	}

	return view
}
