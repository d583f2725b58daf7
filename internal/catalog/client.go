package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxCatalogBytes bounds a remote catalog download
const maxCatalogBytes = 32 * 1024 * 1024

// Client fetches catalog resources over HTTP
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new catalog client
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	return &Client{httpClient: httpClient}
}

// Fetch downloads the catalog resource at url and returns its body and content type
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/x-ndjson, application/yaml, application/vnd.apache.parquet, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("catalog source returned status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read catalog body: %w", err)
	}
	if len(data) > maxCatalogBytes {
		return nil, "", fmt.Errorf("catalog too large (max %d bytes)", maxCatalogBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
