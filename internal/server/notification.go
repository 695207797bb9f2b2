package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	notificationdomain "github.com/orbitcrm/orbitcrm/internal/notification/domain"
)

func (s *Server) ListNotifications(c *gin.Context) {
	var query struct {
		UnreadOnly bool `form:"unread_only"`
		Limit      int  `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	notifications, err := s.notificationSvc.List(c.Request.Context(), notificationdomain.ListNotificationRequest{
		UnreadOnly: query.UnreadOnly,
		Limit:      query.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notifications})
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	notification, err := s.notificationSvc.MarkRead(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notification})
}
