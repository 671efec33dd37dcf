package domain

import "time"

// Conversation is one model's history plus the counters from its latest response.
type Conversation struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Usage    Usage     `json:"usage"`
}

// Append adds a message to the end of the history.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
}

// Record overwrites the counters with the latest response's usage.
func (c *Conversation) Record(usage Usage) {
	c.Usage = usage
}

func (c *Conversation) clear() {
	c.Messages = []Message{}
	c.Usage = Usage{}
}

// Session is the aggregate every comparison action operates on.
type Session struct {
	ID            string                   `json:"id"`
	Credential    string                   `json:"credential"`
	Models        []ModelDescriptor        `json:"models"`
	Conversations map[string]*Conversation `json:"conversations"`
	Disabled      bool                     `json:"disabled"`
	InitPrompt    string                   `json:"init_prompt"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// NewSession creates a session that stays disabled until a key is verified.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:            id,
		Conversations: make(map[string]*Conversation),
		Disabled:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Initialize stores a verified credential and starts an empty conversation per model.
func (s *Session) Initialize(credential string, models []ModelDescriptor) {
	s.Credential = credential
	s.Models = append([]ModelDescriptor(nil), models...)
	s.Conversations = make(map[string]*Conversation, len(models))
	for _, m := range models {
		s.Conversations[m.ID] = &Conversation{Model: m.ID, Messages: []Message{}}
	}
	s.InitPrompt = ""
	s.Disabled = false
}

// Conversation returns the conversation for model, creating it if missing.
func (s *Session) Conversation(model string) *Conversation {
	if s.Conversations == nil {
		s.Conversations = make(map[string]*Conversation)
	}
	conv, ok := s.Conversations[model]
	if !ok {
		conv = &Conversation{Model: model, Messages: []Message{}}
		s.Conversations[model] = conv
	}
	return conv
}

// ModelIDs returns the selected model identifiers in dispatch order.
func (s *Session) ModelIDs() []string {
	ids := make([]string, len(s.Models))
	for i, m := range s.Models {
		ids[i] = m.ID
	}
	return ids
}

// HasHistory reports whether any model has at least one message.
func (s *Session) HasHistory() bool {
	for _, conv := range s.Conversations {
		if len(conv.Messages) > 0 {
			return true
		}
	}
	return false
}

// Reset clears every history and zeroes every counter. The credential and the
// model selection are kept. It reports whether anything was cleared.
func (s *Session) Reset() bool {
	had := s.HasHistory()
	for _, m := range s.Models {
		s.Conversation(m.ID).clear()
	}
	s.InitPrompt = ""
	return had
}
