package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	contactdomain "github.com/orbitcrm/orbitcrm/internal/contact/domain"
	"github.com/orbitcrm/orbitcrm/internal/export"
	notificationdomain "github.com/orbitcrm/orbitcrm/internal/notification/domain"
	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
	portaldomain "github.com/orbitcrm/orbitcrm/internal/portal/domain"
	"go.uber.org/zap"
)

type createContactRequest struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Company string   `json:"company"`
	Tags    []string `json:"tags"`
}

func (s *Server) CreateContact(c *gin.Context) {
	var req createContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	contact, err := s.contactSvc.Create(c.Request.Context(), contactdomain.CreateContactRequest{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Company: strings.TrimSpace(req.Company),
		Tags:    req.Tags,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contact})
}

func (s *Server) ListContacts(c *gin.Context) {
	var query struct {
		PageToken   string `form:"page_token"`
		PageSize    int    `form:"page_size"`
		Email       string `form:"email"`
		Company     string `form:"company"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	resp, err := s.contactSvc.List(c.Request.Context(), contactdomain.ListContactRequest{
		PageToken:   query.PageToken,
		PageSize:    query.PageSize,
		Email:       strings.TrimSpace(query.Email),
		Company:     strings.TrimSpace(query.Company),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetContact(c *gin.Context) {
	contact, err := s.contactSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contact})
}

type updateContactRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
}

func (s *Server) UpdateContact(c *gin.Context) {
	var req updateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	contact, err := s.contactSvc.Update(c.Request.Context(), contactdomain.UpdateContactRequest{
		ID:      strings.TrimSpace(c.Param("id")),
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contact})
}

func (s *Server) DeleteContact(c *gin.Context) {
	if err := s.contactSvc.SoftDelete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GDPRDeleteContact hard-deletes the contact and every row referencing it,
// returning the deletion certificate. Owner or admin role required.
func (s *Server) GDPRDeleteContact(c *gin.Context) {
	cert, err := s.contactSvc.HardDelete(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cert})
}

func (s *Server) ExportContacts(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		AbortWithError(c, newValidationError("format", "invalid_format", "format must be csv or xlsx"))
		return
	}

	fields, err := export.ParseContactFields(c.Query("fields"))
	if err != nil {
		AbortWithError(c, newValidationError("fields", "invalid_fields", err.Error()))
		return
	}

	contacts, err := s.contactSvc.ListAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", `attachment; filename="`+format.Filename("contacts")+`"`)
	if err := export.Write(c.Writer, format, fields, export.ContactRows(fields, contacts)); err != nil {
		s.log.Error("contact export write failed", zap.Error(err))
	}
}

type togglePortalRequest struct {
	ContactID string `json:"contact_id"`
	Enabled   bool   `json:"enabled"`
}

func (s *Server) TogglePortalAccess(c *gin.Context) {
	var req togglePortalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	access, err := s.portalSvc.Toggle(c.Request.Context(), strings.TrimSpace(req.ContactID), req.Enabled)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": access})
}

type invitePortalRequest struct {
	ContactID string `json:"contact_id"`
}

func (s *Server) InvitePortalContact(c *gin.Context) {
	var req invitePortalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.portalSvc.Invite(c.Request.Context(), strings.TrimSpace(req.ContactID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.notifyPortalInvite(c, result)
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// notifyPortalInvite records an in-app notification for the inviting user.
// Failures are logged, never surfaced.
func (s *Server) notifyPortalInvite(c *gin.Context, result portaldomain.InviteResult) {
	userID, _ := orgcontext.UserIDFromContext(c.Request.Context())
	contactID, err := snowflakeFromString(result.ContactID)
	if err != nil {
		return
	}

	_, err = s.notificationSvc.Create(c.Request.Context(), notificationdomain.CreateNotificationRequest{
		UserID:    userID,
		ContactID: contactID,
		Kind:      notificationdomain.KindPortalInvite,
		Title:     "Portal invite sent",
		Body:      "A portal magic link was emailed to the contact.",
	})
	if err != nil {
		s.log.Warn("portal invite notification failed", zap.Error(err))
	}
}

func snowflakeFromString(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}

	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
