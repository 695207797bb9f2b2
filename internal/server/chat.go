package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	chatdomain "github.com/orbitcrm/orbitcrm/internal/chat/domain"
	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
)

type chatMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	ConversationID string               `json:"conversation_id"`
	Model          string               `json:"model"`
	Messages       []chatMessageRequest `json:"messages"`
}

// ChatCompletion streams a gated completion as server-sent events. Errors
// raised before the first chunk flow through the error taxonomy; once the
// stream has started they can only be logged.
func (s *Server) ChatCompletion(c *gin.Context) {
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	userID, ok := orgcontext.UserIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req chatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	messages := make([]chatdomain.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, chatdomain.Message{
			Role:    chatdomain.Role(m.Role),
			Content: m.Content,
		})
	}

	flusher, canFlush := c.Writer.(http.Flusher)
	started := false

	err := s.chatSvc.Stream(c.Request.Context(), chatdomain.CompletionRequest{
		OrgID:          orgID,
		UserID:         userID,
		ConversationID: strings.TrimSpace(req.ConversationID),
		Model:          strings.TrimSpace(req.Model),
		Messages:       messages,
	}, func(chunk chatdomain.StreamChunk) error {
		if !started {
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Status(http.StatusOK)
			started = true
		}
		if err := writeSSEEvent(c, chunk); err != nil {
			return err
		}
		if canFlush {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		if !started {
			AbortWithError(c, err)
			return
		}
		s.log.Warn("chat stream interrupted", zap.Error(err))
	}
}

func writeSSEEvent(c *gin.Context, chunk chatdomain.StreamChunk) error {
	payload := gin.H{"content": chunk.Content, "done": chunk.Done}
	if chunk.Usage != nil {
		payload["usage"] = chunk.Usage
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := c.Writer.WriteString("data: " + string(data) + "\n\n"); err != nil {
		return err
	}
	return nil
}

func (s *Server) ListModels(c *gin.Context) {
	models, err := s.chatSvc.ListModels(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": models})
}
