package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/routine-advisor/advisor/internal/models"
	"github.com/routine-advisor/advisor/internal/providers"
)

// Transport exchanges a conversation for the assistant's next reply
type Transport interface {
	Exchange(ctx context.Context, history []models.ChatMessage) (string, error)
}

// TransportFunc adapts a function to Transport
type TransportFunc func(ctx context.Context, history []models.ChatMessage) (string, error)

// Exchange calls f
func (f TransportFunc) Exchange(ctx context.Context, history []models.ChatMessage) (string, error) {
	return f(ctx, history)
}

// ProviderTransport answers in-process through an LLM provider instead of a
// remote endpoint.
type ProviderTransport struct {
	Provider providers.Provider
	Config   providers.Config
}

// Exchange asks the provider for a reply. An empty answer is ErrNoReply.
func (t ProviderTransport) Exchange(ctx context.Context, history []models.ChatMessage) (string, error) {
	if t.Provider == nil {
		return "", fmt.Errorf("no assistant provider configured")
	}
	reply, err := t.Provider.Reply(ctx, t.Config, history)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", ErrNoReply
	}
	return reply, nil
}
