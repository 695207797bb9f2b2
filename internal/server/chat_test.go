package server

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatdomain "github.com/orbitcrm/orbitcrm/internal/chat/domain"
	organizationdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
)

func chatBody() *bytes.Buffer {
	return bytes.NewBufferString(`{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hi"}]}`)
}

func TestChatCompletionRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/chat", chatBody(), false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestChatCompletionStreamsChunks(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.chunks = []chatdomain.StreamChunk{
		{Content: "Hello"},
		{Content: " world"},
		{Done: true, Usage: &chatdomain.Usage{PromptTokens: 12, CompletionTokens: 30}},
	}

	rec := ts.request(t, http.MethodPost, "/api/chat", chatBody(), true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `data: {"content":"Hello","done":false}`)
	assert.Contains(t, body, `" world"`)
	assert.Contains(t, body, `"done":true`)
	assert.Contains(t, body, `"prompt_tokens":12`)

	assert.Equal(t, testOrgID, ts.chat.lastReq.OrgID)
	assert.Equal(t, testUserID, ts.chat.lastReq.UserID)
	assert.Equal(t, "gpt-4o-mini", ts.chat.lastReq.Model)
}

func TestChatCompletionModelNotAvailable(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.streamErr = chatdomain.ErrModelNotAvailable

	rec := ts.request(t, http.MethodPost, "/api/chat", chatBody(), true)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "model_not_available")
}

func TestChatCompletionInsufficientTokens(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.streamErr = organizationdomain.ErrInsufficientTokens

	rec := ts.request(t, http.MethodPost, "/api/chat", chatBody(), true)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient_tokens")
}

func TestChatCompletionRateLimited(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.streamErr = &chatdomain.RateLimitError{
		Limit:      20,
		RetryAfter: 30 * time.Second,
		ResetAt:    time.Now().Add(30 * time.Second),
	}

	rec := ts.request(t, http.MethodPost, "/api/chat", chatBody(), true)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestChatCompletionLimiterUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.streamErr = chatdomain.ErrLimiterUnavailable

	rec := ts.request(t, http.MethodPost, "/api/chat", chatBody(), true)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChatCompletionRejectsEmptyBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/chat", strings.NewReader("not json"), true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListModels(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/models", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gpt-4o-mini")
	assert.Contains(t, rec.Body.String(), "claude-opus-4")
}
