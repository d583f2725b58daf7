package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/routine-advisor/advisor/internal/models"
	"github.com/routine-advisor/advisor/internal/providers"
)

// Gemini is a provider for Google Gemini
type Gemini struct{}

// New returns a new Gemini provider
func New() *Gemini {
	return &Gemini{}
}

// Reply replays history into a Gemini chat session and sends the last user
// message.
func (g *Gemini) Reply(ctx context.Context, config providers.Config, history []models.ChatMessage) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	prior, last, err := splitHistory(history)
	if err != nil {
		return "", err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	if config.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(config.SystemPrompt)}}
	}

	cs := model.StartChat()
	cs.History = prior

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}

	return sb.String(), nil
}

// splitHistory converts all but the final message into Gemini chat history.
// Gemini names the assistant role "model" and has no system role in history.
func splitHistory(history []models.ChatMessage) ([]*genai.Content, string, error) {
	if len(history) == 0 {
		return nil, "", fmt.Errorf("empty conversation")
	}
	last := history[len(history)-1]
	if last.Role != models.RoleUser || last.Content == "" {
		return nil, "", fmt.Errorf("conversation must end with a user message")
	}

	var prior []*genai.Content
	for _, m := range history[:len(history)-1] {
		var role string
		switch m.Role {
		case models.RoleUser:
			role = "user"
		case models.RoleAssistant:
			role = "model"
		default:
			continue
		}
		if m.Content == "" {
			continue
		}
		prior = append(prior, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return prior, last.Content, nil
}
