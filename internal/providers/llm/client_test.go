package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitcrm/orbitcrm/internal/chat/domain"
)

func sseHandler(t *testing.T, lines []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, true, payload["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "data: %s\n\n", line)
		}
	}
}

func TestStreamCompletionForwardsDeltasAndUsage(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, []string{
		`{"choices":[{"delta":{"content":"hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`{"choices":[],"usage":{"prompt_tokens":12,"completion_tokens":5}}`,
		`[DONE]`,
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})

	var got []domain.StreamChunk
	usage, err := client.StreamCompletion(context.Background(), "gpt-4o-mini",
		[]domain.Message{{Role: domain.RoleUser, Content: "hi"}},
		func(chunk domain.StreamChunk) error {
			got = append(got, chunk)
			return nil
		})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "hel", got[0].Content)
	assert.Equal(t, "lo", got[1].Content)
	assert.True(t, got[2].Done)

	require.NotNil(t, usage)
	assert.Equal(t, int64(12), usage.PromptTokens)
	assert.Equal(t, int64(5), usage.CompletionTokens)
}

func TestStreamCompletionUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	_, err := client.StreamCompletion(context.Background(), "gpt-4o-mini",
		[]domain.Message{{Role: domain.RoleUser, Content: "hi"}},
		func(domain.StreamChunk) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestStreamCompletionRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:1"})
	_, err := client.StreamCompletion(context.Background(), "gpt-4o-mini",
		[]domain.Message{{Role: domain.RoleUser, Content: "hi"}},
		func(domain.StreamChunk) error { return nil })
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStreamCompletionStopsOnSinkError(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, []string{
		`{"choices":[{"delta":{"content":"a"}}]}`,
		`{"choices":[{"delta":{"content":"b"}}]}`,
		`[DONE]`,
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	calls := 0
	_, err := client.StreamCompletion(context.Background(), "gpt-4o-mini",
		[]domain.Message{{Role: domain.RoleUser, Content: "hi"}},
		func(domain.StreamChunk) error {
			calls++
			return context.Canceled
		})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
