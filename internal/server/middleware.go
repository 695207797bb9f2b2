package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
	portaldomain "github.com/orbitcrm/orbitcrm/internal/portal/domain"
)

const (
	HeaderOrg       = "X-Org-ID"
	HeaderRequestID = "X-Request-ID"

	contextPortalSessionKey = "portal_session"
)

// RequestLogger assigns a request id and emits one structured line per
// request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			fields = append(fields, zap.Error(lastErr.Err))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// AuthRequired resolves the session cookie to a user and stores the user
// id in the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authSvc.Authenticate(c.Request.Context(), rawToken)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := orgcontext.WithUserID(c.Request.Context(), session.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OrgContext resolves the org named by the X-Org-ID header, verifies the
// authenticated user's membership, and injects org id and role. Must run
// after AuthRequired.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := orgcontext.UserIDFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		rawOrg := strings.TrimSpace(c.GetHeader(HeaderOrg))
		if rawOrg == "" {
			AbortWithError(c, newValidationError("org_id", "missing_org_header", "X-Org-ID header is required"))
			return
		}
		orgID, err := snowflake.ParseString(rawOrg)
		if err != nil {
			AbortWithError(c, newValidationError("org_id", "invalid_org_header", "X-Org-ID header is not a valid id"))
			return
		}

		member, err := s.orgSvc.GetMember(c.Request.Context(), orgID, userID)
		if err != nil {
			AbortWithError(c, ErrForbidden)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		ctx = orgcontext.WithRole(ctx, member.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole allows the request through only when the member role is in
// the set. Must run after OrgContext.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := orgcontext.RoleFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrForbidden)
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

// PortalAuthRequired authenticates portal requests from the signed cookie
// snapshot alone; the token table is never consulted here.
func (s *Server) PortalAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := s.portalSessions.ReadValue(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sess, err := s.portalCodec.Decode(value, time.Now().UTC())
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextPortalSessionKey, sess)
		c.Next()
	}
}

func portalSession(c *gin.Context) (portaldomain.Session, bool) {
	value, ok := c.Get(contextPortalSessionKey)
	if !ok {
		return portaldomain.Session{}, false
	}
	sess, ok := value.(portaldomain.Session)
	return sess, ok
}
