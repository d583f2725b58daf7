package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/routine-advisor/advisor/internal/models"
	"github.com/routine-advisor/advisor/internal/providers"
)

// Ollama is a provider for Ollama
type Ollama struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a new Ollama provider
func New() *Ollama {
	ollamaURL := os.Getenv("OLLAMA_URL")
	if ollamaURL == "" {
		ollamaURL = os.Getenv("OLLAMA_HOST")
	}
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	if !strings.Contains(ollamaURL, "://") {
		ollamaURL = "http://" + ollamaURL
	}
	return &Ollama{BaseURL: strings.TrimRight(ollamaURL, "/"), HTTPClient: &http.Client{}}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply sends the conversation to the Ollama chat API
func (o *Ollama) Reply(ctx context.Context, config providers.Config, history []models.ChatMessage) (string, error) {
	messages := providers.Messages(config, history)
	payload := make([]message, 0, len(messages))
	for _, m := range messages {
		payload = append(payload, message{Role: string(m.Role), Content: m.Content})
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":    config.Model,
		"messages": payload,
		"stream":   false,
		"options": map[string]interface{}{
			"temperature": config.Temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/chat", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := o.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Message message `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	return response.Message.Content, nil
}
