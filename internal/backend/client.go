package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"modelrouter/internal/models"
)

const defaultTimeout = 60 * time.Second

// Client talks to locally hosted OpenAI-compatible model servers. One
// client serves every registered backend; the endpoint comes from the
// model entry per call.
type Client struct {
	http *http.Client
}

// NewClient creates a client with a pooled transport. A zero timeout
// defaults to 60 seconds; this is the per-call ceiling, callers can impose
// shorter deadlines through ctx.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// ForwardResult is a backend response passed through unchanged.
type ForwardResult struct {
	StatusCode int
	Body       []byte
	Latency    time.Duration
}

// Forward posts an OpenAI-style payload to the entry's chat completions
// endpoint with the model field set to the entry's identifier, and returns
// the raw response. The caller decides what to do with non-2xx statuses;
// only transport failures are errors here.
func (c *Client) Forward(ctx context.Context, entry models.ModelEntry, payload map[string]any) (*ForwardResult, error) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["model"] = entry.ID

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := entry.Endpoint + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", entry.ID, err)
	}
	defer resp.Body.Close()

	respBody, err := readAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", entry.ID, err)
	}

	return &ForwardResult{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Latency:    time.Since(start),
	}, nil
}

// Complete sends a single-turn chat completion and returns the assistant
// text. This is the invoke capability the workflow engine consumes.
func (c *Client) Complete(ctx context.Context, entry models.ModelEntry, instruction string) (string, error) {
	payload := map[string]any{
		"messages": []map[string]string{
			{"role": "user", "content": instruction},
		},
	}

	result, err := c.Forward(ctx, entry, payload)
	if err != nil {
		return "", err
	}
	if result.StatusCode != http.StatusOK {
		return "", fmt.Errorf("backend %s returned status %d", entry.ID, result.StatusCode)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(result.Body, &parsed); err != nil {
		return "", fmt.Errorf("decode response from %s: %w", entry.ID, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("backend %s returned no choices", entry.ID)
	}
	return parsed.Choices[0].Message.Content, nil
}
