// Package oracle implements a minimal chat-completions client with tool
// calling, used for adjacency reasoning over room geometry. The pipeline
// treats the oracle as best-effort: any transport, timeout or shape failure
// selects the deterministic geometric fallback instead.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Config holds oracle connection settings.
type Config struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key" json:"-"`
	Model   string `mapstructure:"model" yaml:"model" json:"model"`
	// TimeoutSec bounds a single chat call.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	// MaxRetries caps retries on rate-limit responses.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries"`
	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration `mapstructure:"-" yaml:"-" json:"-"`
}

// DefaultConfig returns oracle client defaults.
func DefaultConfig() Config {
	return Config{
		Model:          "gpt-4o-mini",
		TimeoutSec:     30,
		MaxRetries:     3,
		RetryBaseDelay: 500 * time.Millisecond,
	}
}

// Message is one turn of the oracle conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is an oracle request to execute one of the exposed tools.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool describes a callable function exposed to the oracle.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the schema of an exposed function.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client talks to a chat-completions compatible endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client. A nil transport uses http.DefaultTransport.
func NewClient(cfg Config) *Client {
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = DefaultConfig().TimeoutSec
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultConfig().RetryBaseDelay
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
	}
}

// Configured reports whether the client has an endpoint to call.
func (c *Client) Configured() bool { return c.cfg.BaseURL != "" }

// Chat sends one conversation turn and returns the assistant message.
// Rate-limit responses are retried with exponential backoff up to
// MaxRetries; all other failures return immediately.
func (c *Client) Chat(ctx context.Context, messages []Message, tools []Tool) (*Message, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("oracle endpoint not configured")
	}
	body, err := json.Marshal(chatRequest{Model: c.cfg.Model, Messages: messages, Tools: tools})
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	delay := c.cfg.RetryBaseDelay
	for attempt := 0; ; attempt++ {
		msg, retryable, err := c.send(ctx, body)
		if err == nil {
			return msg, nil
		}
		if !retryable || attempt >= c.cfg.MaxRetries {
			return nil, err
		}
		slog.Warn("oracle rate limited, backing off",
			"attempt", attempt+1, "delay", delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// send performs a single HTTP round trip. The bool result marks
// rate-limit failures as retryable.
func (c *Client) send(ctx context.Context, body []byte) (*Message, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("oracle request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, false, fmt.Errorf("read oracle response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("oracle rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, false, fmt.Errorf("decode oracle response: %w", err)
	}
	if parsed.Error != nil {
		return nil, false, fmt.Errorf("oracle error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, false, fmt.Errorf("oracle returned no choices")
	}
	return &parsed.Choices[0].Message, false, nil
}
