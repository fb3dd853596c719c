package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sportswire/internal/config"
	"sportswire/internal/ports"
)

// stylizeTimeout bounds a single caption generation call. The model backend
// cold-starts slowly, so the bound is generous.
const stylizeTimeout = 60 * time.Second

// Client talks to the external caption stylization service.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.Stylizer = (*Client)(nil)

// NewClient creates a reusable HTTP client for the inference service.
func NewClient(cfg config.InferenceConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		http:    &http.Client{Timeout: stylizeTimeout},
	}
}

// Stylize posts a plain summary and returns the branded caption. The error
// taxonomy matters to callers: a *ports.StylizeStatusError for non-success
// statuses, ports.ErrInvalidStylizeResponse for a success reply without a
// caption, and a wrapped transport error otherwise.
func (c *Client) Stylize(ctx context.Context, summary string) (string, error) {
	body, err := json.Marshal(map[string]string{"summary": summary})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-caption", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call inference server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ports.StylizeStatusError{Code: resp.StatusCode}
	}

	var reply struct {
		StylizedCaption string `json:"stylized_caption"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", ports.ErrInvalidStylizeResponse
	}
	if reply.StylizedCaption == "" {
		return "", ports.ErrInvalidStylizeResponse
	}

	return reply.StylizedCaption, nil
}
