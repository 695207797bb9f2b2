package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// PortalExchange consumes a magic-link token and seals the resulting
// session snapshot into the signed portal cookie.
func (s *Server) PortalExchange(c *gin.Context) {
	rawToken := strings.TrimSpace(c.Param("token"))

	sess, err := s.portalSvc.Exchange(c.Request.Context(), rawToken)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	value, err := s.portalCodec.Encode(sess)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.portalSessions.Set(c, value, sess.IssuedAt.Add(s.portalCodec.TTL()))
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"contact_id": sess.ContactID,
		"name":       sess.Name,
		"email":      sess.Email,
		"expires_at": sess.IssuedAt.Add(s.portalCodec.TTL()).Format(time.RFC3339),
	}})
}

func (s *Server) PortalMe(c *gin.Context) {
	sess, ok := portalSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"contact_id": sess.ContactID,
		"name":       sess.Name,
		"email":      sess.Email,
	}})
}

func (s *Server) PortalProjects(c *gin.Context) {
	sess, ok := portalSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	projects, err := s.projectSvc.ListForContact(c.Request.Context(), sess.OrgID, sess.ContactID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": projects})
}

func (s *Server) PortalInvoices(c *gin.Context) {
	sess, ok := portalSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	invoices, err := s.invoiceSvc.ListForContact(c.Request.Context(), sess.OrgID, sess.ContactID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

func (s *Server) PortalLogout(c *gin.Context) {
	s.portalSessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
