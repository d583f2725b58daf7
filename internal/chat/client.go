package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/routine-advisor/advisor/internal/models"
)

// Request is the body posted to the chat endpoint
type Request struct {
	ChatHistory []models.ChatMessage `json:"chatHistory"`
}

// Response is the body returned by the chat endpoint
type Response struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

const maxResponseBytes = 4 << 20

// Client posts conversations to a remote chat endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for endpoint. A zero timeout means 30 seconds.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Exchange posts history and returns the reply. A body without a non-empty
// reply, or one that is not JSON, yields ErrNoReply. Network failures and
// non-2xx statuses are returned as transport errors.
func (c *Client) Exchange(ctx context.Context, history []models.ChatMessage) (string, error) {
	body, err := json.Marshal(Request{ChatHistory: history})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoReply, err)
	}
	if strings.TrimSpace(out.Reply) == "" {
		return "", ErrNoReply
	}
	return out.Reply, nil
}
