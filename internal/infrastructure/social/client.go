package social

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sportswire/internal/config"
	"sportswire/internal/domain"
	"sportswire/internal/ports"
)

const defaultBatchSize = 20

// Client pulls recent posts for a configured list of journalist handles from
// the social feed API.
type Client struct {
	name      string
	baseURL   string
	token     string
	handles   []string
	batchSize int
	http      *http.Client
	logger    *slog.Logger
}

var _ ports.SourceAdapter = (*Client)(nil)

// New builds a social feed adapter from its config block.
func New(cfg config.SourceConfig, logger *slog.Logger) (ports.SourceAdapter, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("social source %s: apiUrl is required", cfg.Name)
	}
	if len(cfg.Handles) == 0 {
		return nil, fmt.Errorf("social source %s: at least one handle is required", cfg.Name)
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	return &Client{
		name:      cfg.Name,
		baseURL:   cfg.APIURL,
		token:     cfg.Token,
		handles:   cfg.Handles,
		batchSize: batch,
		http:      &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}, nil
}

// Name identifies the adapter in logs and metrics.
func (c *Client) Name() string {
	return c.name
}

// FetchRecent drains the configured handles in order and returns their latest
// posts as source items. Any transport or auth failure aborts the whole
// fetch; the caller decides whether other sources can still proceed.
func (c *Client) FetchRecent(ctx context.Context) ([]domain.SourceItem, error) {
	var items []domain.SourceItem
	for _, handle := range c.handles {
		posts, err := c.fetchHandle(ctx, handle)
		if err != nil {
			return nil, fmt.Errorf("handle @%s: %w", handle, err)
		}

		c.debug("handle fetched", "handle", handle, "posts", len(posts))
		for _, p := range posts {
			items = append(items, domain.SourceItem{
				NativeID:   p.ID,
				SourceName: handle,
				Body:       p.Caption,
				ProducedAt: p.TakenAt,
			})
		}
	}
	return items, nil
}

type post struct {
	ID      string    `json:"id"`
	Caption string    `json:"caption"`
	TakenAt time.Time `json:"takenAt"`
}

func (c *Client) fetchHandle(ctx context.Context, handle string) ([]post, error) {
	endpoint := fmt.Sprintf("%s/users/%s/media?limit=%s",
		c.baseURL, url.PathEscape(handle), strconv.Itoa(c.batchSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("feed auth rejected: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var posts []post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return posts, nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
