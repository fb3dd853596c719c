package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sportswire/internal/config"
	"sportswire/internal/domain"
	"sportswire/internal/ports"
)

const defaultMaxStories = 5

const rankPrompt = `You are a world-class sports news analyst. Your task is to analyze the provided post captions and extract the most significant, confirmed breaking news stories.

Instructions:
1. Read through all the post captions provided below.
2. Identify up to %d of the most important and distinct news stories. A story could be a major transfer, a significant match result, or a key injury update.
3. For each story you identify, create a JSON object with three keys: "headline", "summary", and "sourceExcerpt".
4. The "sourceExcerpt" key must contain the full, original caption text from which the story was derived.
5. Return your findings as a single, valid JSON array containing these objects.
6. If no significant news is found, return an empty JSON array: [].

Here are the latest post captions:
---
%s
---`

const summarizePrompt = `You are a world-class sports news analyst. Your task is to analyze the provided article content and create a concise, engaging summary.

Instructions:
1. Read the article content below.
2. Generate a single JSON object with two keys: "headline" and "summary".
3. The "headline" should be a short, catchy title for the story.
4. The "summary" should be a one-paragraph summary of the key information and enough context about the subjects of the story to understand its significance.

Here is the article content:
---
%s
---`

// Client implements story ranking and single-article summarization against
// an OpenAI-compatible chat completions API.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	maxStories int
	http       *http.Client
}

var _ ports.Ranker = (*Client)(nil)
var _ ports.Summarizer = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.LLMConfig) *Client {
	maxStories := cfg.MaxStories
	if maxStories <= 0 {
		maxStories = defaultMaxStories
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		maxStories: maxStories,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
}

// Rank sends the concatenated ingested text to the model and parses the
// ranked story array it returns. A malformed reply is a hard error; an empty
// array is a valid "nothing significant" outcome.
func (c *Client) Rank(ctx context.Context, content string) ([]domain.NewsStory, error) {
	prompt := fmt.Sprintf(rankPrompt, c.maxStories, content)

	reply, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var stories []domain.NewsStory
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &stories); err != nil {
		return nil, fmt.Errorf("parse ranked stories: %w", err)
	}

	if len(stories) > c.maxStories {
		stories = stories[:c.maxStories]
	}
	return stories, nil
}

// Summarize condenses one article body into a single headline/summary story.
func (c *Client) Summarize(ctx context.Context, articleText string) (domain.NewsStory, error) {
	prompt := fmt.Sprintf(summarizePrompt, articleText)

	reply, err := c.complete(ctx, prompt)
	if err != nil {
		return domain.NewsStory{}, err
	}

	var story domain.NewsStory
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &story); err != nil {
		return domain.NewsStory{}, fmt.Errorf("parse story: %w", err)
	}
	return story, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("llm client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("llm response has no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

// stripCodeFence removes the markdown wrapping models habitually add around
// JSON replies.
func stripCodeFence(reply string) string {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	return strings.TrimSpace(reply)
}
