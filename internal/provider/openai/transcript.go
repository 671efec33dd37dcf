package openai

import (
	"strings"

	"github.com/davidbz/modelbench/internal/domain"
)

// Markers of the flattened conversation sent to legacy completion models.
const (
	RestartSequence = "|UR|"
	StopSequence    = "|SP|"
)

// Transcript renders the initial prompt and history as a single completion prompt.
// Every user turn starts with RestartSequence and every model turn ends with
// StopSequence, so the model answers the last user turn and stops.
func Transcript(initPrompt string, messages []domain.Message) string {
	var b strings.Builder

	if initPrompt != "" {
		b.WriteString(initPrompt)
		b.WriteString("\n")
	}

	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleModel:
			b.WriteString(msg.Content)
			b.WriteString(StopSequence)
			b.WriteString("\n")
		default:
			b.WriteString(RestartSequence)
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// cleanCompletion strips stray markers and surrounding whitespace from a legacy completion.
func cleanCompletion(text string) string {
	text = strings.ReplaceAll(text, StopSequence, "")
	text = strings.ReplaceAll(text, RestartSequence, "")
	return strings.TrimSpace(text)
}
