package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orbitcrm/orbitcrm/internal/chat/domain"
)

var ErrNotConfigured = errors.New("llm api key not configured")

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client streams chat completions from an OpenAI-compatible endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type completionPayload struct {
	Model         string           `json:"model"`
	Messages      []domain.Message `json:"messages"`
	Stream        bool             `json:"stream"`
	StreamOptions struct {
		IncludeUsage bool `json:"include_usage"`
	} `json:"stream_options"`
}

type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *domain.Usage `json:"usage"`
}

// StreamCompletion POSTs a streaming completion and replays each SSE delta
// through onChunk. The terminal chunk carries the usage counters; those are
// returned once the stream ends.
func (c *Client) StreamCompletion(ctx context.Context, model string, messages []domain.Message, onChunk func(domain.StreamChunk) error) (*domain.Usage, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	payload := completionPayload{
		Model:    model,
		Messages: messages,
		Stream:   true,
	}
	payload.StreamOptions.IncludeUsage = true

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("completion request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return c.readStream(resp.Body, onChunk)
}

func (c *Client) readStream(r io.Reader, onChunk func(domain.StreamChunk) error) (*domain.Usage, error) {
	var usage *domain.Usage

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			break
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return usage, fmt.Errorf("malformed stream event: %w", err)
		}

		if event.Usage != nil {
			usage = event.Usage
		}
		if len(event.Choices) == 0 {
			continue
		}

		chunk := domain.StreamChunk{Content: event.Choices[0].Delta.Content}
		if event.Choices[0].FinishReason != nil {
			chunk.Done = true
		}
		if chunk.Content == "" && !chunk.Done {
			continue
		}
		if err := onChunk(chunk); err != nil {
			return usage, err
		}
	}
	if err := scanner.Err(); err != nil {
		return usage, err
	}

	return usage, nil
}
