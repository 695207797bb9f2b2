package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	projectdomain "github.com/orbitcrm/orbitcrm/internal/project/domain"
)

type createProjectRequest struct {
	ContactID   string `json:"contact_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
}

func (s *Server) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	project, err := s.projectSvc.Create(c.Request.Context(), projectdomain.CreateProjectRequest{
		ContactID:   strings.TrimSpace(req.ContactID),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		DueDate:     dueDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (s *Server) ListProjects(c *gin.Context) {
	var query struct {
		ContactID string `form:"contact_id"`
		Status    string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	projects, err := s.projectSvc.List(c.Request.Context(), projectdomain.ListProjectRequest{
		ContactID: strings.TrimSpace(query.ContactID),
		Status:    projectdomain.ProjectStatus(strings.TrimSpace(query.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": projects})
}

func (s *Server) GetProject(c *gin.Context) {
	project, err := s.projectSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": project})
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	DueDate     string  `json:"due_date"`
}

func (s *Server) UpdateProject(c *gin.Context) {
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	var status *projectdomain.ProjectStatus
	if req.Status != nil {
		parsed := projectdomain.ProjectStatus(strings.TrimSpace(*req.Status))
		status = &parsed
	}

	project, err := s.projectSvc.Update(c.Request.Context(), projectdomain.UpdateProjectRequest{
		ID:          strings.TrimSpace(c.Param("id")),
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		DueDate:     dueDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (s *Server) DeleteProject(c *gin.Context) {
	if err := s.projectSvc.SoftDelete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createMilestoneRequest struct {
	Name    string `json:"name"`
	DueDate string `json:"due_date"`
}

func (s *Server) CreateMilestone(c *gin.Context) {
	var req createMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	milestone, err := s.projectSvc.CreateMilestone(c.Request.Context(), projectdomain.CreateMilestoneRequest{
		ProjectID: strings.TrimSpace(c.Param("id")),
		Name:      strings.TrimSpace(req.Name),
		DueDate:   dueDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": milestone})
}

func (s *Server) ListMilestones(c *gin.Context) {
	milestones, err := s.projectSvc.ListMilestones(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": milestones})
}

func (s *Server) CompleteMilestone(c *gin.Context) {
	milestone, err := s.projectSvc.CompleteMilestone(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": milestone})
}
