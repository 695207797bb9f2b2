package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	taskdomain "github.com/orbitcrm/orbitcrm/internal/task/domain"
)

type createTaskRequest struct {
	ProjectID  string `json:"project_id"`
	ContactID  string `json:"contact_id"`
	AssigneeID string `json:"assignee_id"`
	Title      string `json:"title"`
	Notes      string `json:"notes"`
	Priority   string `json:"priority"`
	DueDate    string `json:"due_date"`
}

func (s *Server) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	task, err := s.taskSvc.Create(c.Request.Context(), taskdomain.CreateTaskRequest{
		ProjectID:  strings.TrimSpace(req.ProjectID),
		ContactID:  strings.TrimSpace(req.ContactID),
		AssigneeID: strings.TrimSpace(req.AssigneeID),
		Title:      strings.TrimSpace(req.Title),
		Notes:      req.Notes,
		Priority:   taskdomain.TaskPriority(strings.TrimSpace(req.Priority)),
		DueDate:    dueDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": task})
}

func (s *Server) ListTasks(c *gin.Context) {
	var query struct {
		ProjectID  string `form:"project_id"`
		ContactID  string `form:"contact_id"`
		AssigneeID string `form:"assignee_id"`
		Status     string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tasks, err := s.taskSvc.List(c.Request.Context(), taskdomain.ListTaskRequest{
		ProjectID:  strings.TrimSpace(query.ProjectID),
		ContactID:  strings.TrimSpace(query.ContactID),
		AssigneeID: strings.TrimSpace(query.AssigneeID),
		Status:     taskdomain.TaskStatus(strings.TrimSpace(query.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

func (s *Server) GetTask(c *gin.Context) {
	task, err := s.taskSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": task})
}

type updateTaskRequest struct {
	Title    *string `json:"title"`
	Notes    *string `json:"notes"`
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
	DueDate  string  `json:"due_date"`
}

func (s *Server) UpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	var status *taskdomain.TaskStatus
	if req.Status != nil {
		parsed := taskdomain.TaskStatus(strings.TrimSpace(*req.Status))
		status = &parsed
	}
	var priority *taskdomain.TaskPriority
	if req.Priority != nil {
		parsed := taskdomain.TaskPriority(strings.TrimSpace(*req.Priority))
		priority = &parsed
	}

	task, err := s.taskSvc.Update(c.Request.Context(), taskdomain.UpdateTaskRequest{
		ID:       strings.TrimSpace(c.Param("id")),
		Title:    req.Title,
		Notes:    req.Notes,
		Status:   status,
		Priority: priority,
		DueDate:  dueDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": task})
}

func (s *Server) DeleteTask(c *gin.Context) {
	if err := s.taskSvc.SoftDelete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
