// Package assistant answers chat conversations with the configured LLM
// provider. It backs both the POST /api/assistant worker and visitor sessions
// that have no remote chat endpoint.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/routine-advisor/advisor/internal/chat"
	"github.com/routine-advisor/advisor/internal/gemini"
	"github.com/routine-advisor/advisor/internal/models"
	"github.com/routine-advisor/advisor/internal/ollama"
	"github.com/routine-advisor/advisor/internal/openai"
	"github.com/routine-advisor/advisor/internal/providers"
)

// DefaultSystemPrompt frames every conversation sent to the provider
const DefaultSystemPrompt = `You are a friendly beauty advisor helping a shopper build a personal routine from the products they picked in our catalog.

Guidelines:
- Only discuss skincare, haircare, makeup, fragrance and the routines that use them. Politely decline unrelated questions.
- When given a list of selected products, order them into a step-by-step routine (morning and evening when it matters) and explain why each step comes where it does.
- Give one short, practical tip per step.
- Never invent products the shopper did not select. You may suggest a general product type if an essential step is missing.
- Keep answers concise and format them as Markdown lists.`

// ErrEmptyConversation is returned when there is nothing to answer
var ErrEmptyConversation = errors.New("assistant: conversation has no user message")

// Options configures a Service
type Options struct {
	Provider     string
	Model        string
	Temperature  float64
	SystemPrompt string
}

type Service struct {
	name     string
	provider providers.Provider
	config   providers.Config
}

// New resolves the provider and default model and returns a service
func New(opts Options) (*Service, error) {
	name := opts.Provider
	if name == "" {
		name = os.Getenv("ASSISTANT_PROVIDER")
		if name == "" {
			name = "ollama"
		}
	}
	p, err := NewProvider(name)
	if err != nil {
		return nil, err
	}
	opts.Provider = name
	return NewWithProvider(p, opts), nil
}

// NewWithProvider returns a service that answers through p
func NewWithProvider(p providers.Provider, opts Options) *Service {
	if opts.Model == "" {
		opts.Model = DefaultModel(opts.Provider)
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	return &Service{
		name:     opts.Provider,
		provider: p,
		config: providers.Config{
			Model:        opts.Model,
			Temperature:  opts.Temperature,
			SystemPrompt: opts.SystemPrompt,
		},
	}
}

// NewProvider returns the provider registered under name
func NewProvider(name string) (providers.Provider, error) {
	switch name {
	case "openai":
		return openai.New(), nil
	case "ollama":
		return ollama.New(), nil
	case "gemini":
		return gemini.New(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// DefaultModel returns the model used when none is configured. The
// provider's *_MODEL environment variable wins over the built-in default.
func DefaultModel(provider string) string {
	switch provider {
	case "openai":
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			return "gpt-4o"
		}
		return model
	case "ollama":
		model := os.Getenv("OLLAMA_MODEL")
		if model == "" {
			return "mistral-small3.2:24b"
		}
		return model
	case "gemini":
		model := os.Getenv("GEMINI_MODEL")
		if model == "" {
			return "gemini-1.5-flash"
		}
		return model
	default:
		return ""
	}
}

// Provider returns the provider name
func (s *Service) Provider() string { return s.name }

// Model returns the model replies are generated with
func (s *Service) Model() string { return s.config.Model }

// Reply answers the last user message of history
func (s *Service) Reply(ctx context.Context, history []models.ChatMessage) (string, error) {
	if !hasUserMessage(history) {
		return "", ErrEmptyConversation
	}

	start := time.Now()
	reply, err := s.provider.Reply(ctx, s.config, history)
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.name, err)
	}
	reply = strings.TrimSpace(reply)
	slog.Info("Generated assistant reply", "provider", s.name, "model", s.config.Model, "messages", len(history), "length", len(reply), "duration", time.Since(start))
	return reply, nil
}

// Transport returns a chat transport that calls the service in-process
func (s *Service) Transport() chat.Transport {
	return chat.ProviderTransport{Provider: s.provider, Config: s.config}
}

func hasUserMessage(history []models.ChatMessage) bool {
	for _, m := range history {
		if m.Role == models.RoleUser && strings.TrimSpace(m.Content) != "" {
			return true
		}
	}
	return false
}
