package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	organizationdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
)

type createOrganizationRequest struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	PlanTier string `json:"plan_tier"`
}

func (s *Server) CreateOrganization(c *gin.Context) {
	userID, ok := orgcontext.UserIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tier := organizationdomain.TierFree
	if raw := strings.TrimSpace(req.PlanTier); raw != "" {
		tier = organizationdomain.Tier(raw)
	}

	org, err := s.orgSvc.Create(c.Request.Context(), organizationdomain.CreateOrganizationRequest{
		Name:     strings.TrimSpace(req.Name),
		Slug:     strings.TrimSpace(req.Slug),
		PlanTier: tier,
		OwnerID:  userID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": org})
}

func (s *Server) GetOrganization(c *gin.Context) {
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	org, err := s.orgSvc.GetByID(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": org})
}

func (s *Server) GetTokenBalance(c *gin.Context) {
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	balance, err := s.orgSvc.GetBalance(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": balance})
}
