package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatOK(t *testing.T, w http.ResponseWriter, msg Message) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": msg}},
	}))
}

func TestChat_NotConfigured(t *testing.T) {
	c := NewClient(Config{})
	assert.False(t, c.Configured())
	_, err := c.Chat(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestChat_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req struct {
			Model    string    `json:"model"`
			Messages []Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)

		chatOK(t, w, Message{Role: "assistant", Content: "hello"})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "secret", Model: "test-model", TimeoutSec: 5})
	msg, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
}

func TestChat_RetriesRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		chatOK(t, w, Message{Role: "assistant", Content: "finally"})
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL: srv.URL, Model: "test", TimeoutSec: 5,
		MaxRetries: 3, RetryBaseDelay: time.Millisecond,
	})
	msg, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "finally", msg.Content)
	assert.Equal(t, 3, calls)
}

func TestChat_RetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL: srv.URL, Model: "test", TimeoutSec: 5,
		MaxRetries: 2, RetryBaseDelay: time.Millisecond,
	})
	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestChat_ServerErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL: srv.URL, Model: "test", TimeoutSec: 5,
		MaxRetries: 3, RetryBaseDelay: time.Millisecond,
	})
	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestChat_APIErrorSurface(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "model overloaded"},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "test", TimeoutSec: 5})
	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestChat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "test", TimeoutSec: 5})
	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestTrimHistory_UnderLimitUnchanged(t *testing.T) {
	msgs := []Message{
		{Role: "system", Content: "s"},
		{Role: "user", Content: "u"},
		{Role: "assistant", Content: "a"},
	}
	assert.Equal(t, msgs, TrimHistory(msgs, 10))
	assert.Equal(t, msgs, TrimHistory(msgs, 0))
}

func TestTrimHistory_KeepsSystemAndFirstUser(t *testing.T) {
	msgs := []Message{
		{Role: "system", Content: "s"},
		{Role: "user", Content: "rooms"},
	}
	for i := 0; i < 10; i++ {
		msgs = append(msgs, Message{Role: "assistant", Content: "turn"})
	}
	out := TrimHistory(msgs, 4)
	require.Len(t, out, 6)
	assert.Equal(t, "system", out[0].Role)
	assert.Equal(t, "rooms", out[1].Content)
}

func TestTrimHistory_DropsOrphanToolMessages(t *testing.T) {
	msgs := []Message{
		{Role: "system", Content: "s"},
		{Role: "user", Content: "rooms"},
		{Role: "assistant", Content: "old"},
		{Role: "tool", ToolCallID: "1", Content: "result"},
		{Role: "tool", ToolCallID: "2", Content: "result"},
		{Role: "assistant", Content: "recent"},
		{Role: "assistant", Content: "latest"},
	}
	out := TrimHistory(msgs, 4)
	// Window starts at an orphaned tool result; both orphans must go.
	for _, m := range out {
		if m.Role == "tool" {
			t.Fatalf("orphan tool message survived: %+v", m)
		}
	}
	assert.Equal(t, "system", out[0].Role)
}
