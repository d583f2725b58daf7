package providers

import (
	"context"

	"github.com/routine-advisor/advisor/internal/models"
)

// Config represents the configuration for an LLM provider
type Config struct {
	Model        string
	Temperature  float64
	SystemPrompt string
}

// Provider defines the interface for an LLM provider. Reply answers the last
// message of history, using the earlier messages as conversation context.
type Provider interface {
	Reply(ctx context.Context, config Config, history []models.ChatMessage) (string, error)
}

// Messages returns history with the system prompt prepended when one is set.
// Messages with an empty role or content are skipped.
func Messages(config Config, history []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(history)+1)
	if config.SystemPrompt != "" {
		out = append(out, models.ChatMessage{Role: models.RoleSystem, Content: config.SystemPrompt})
	}
	for _, m := range history {
		if m.Role == "" || m.Content == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
