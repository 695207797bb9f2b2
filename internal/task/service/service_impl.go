package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
	"github.com/orbitcrm/orbitcrm/internal/task/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("task.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

var validStatuses = map[domain.TaskStatus]bool{
	domain.StatusTodo:       true,
	domain.StatusInProgress: true,
	domain.StatusDone:       true,
}

var validPriorities = map[domain.TaskPriority]bool{
	domain.PriorityLow:    true,
	domain.PriorityMedium: true,
	domain.PriorityHigh:   true,
	domain.PriorityUrgent: true,
}

func (s *Service) Create(ctx context.Context, req domain.CreateTaskRequest) (domain.Task, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Task{}, domain.ErrInvalidOrganization
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Task{}, domain.ErrInvalidTitle
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !validPriorities[priority] {
		return domain.Task{}, domain.ErrInvalidPriority
	}

	now := time.Now().UTC()
	task := domain.Task{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Title:     title,
		Notes:     strings.TrimSpace(req.Notes),
		Status:    domain.StatusTodo,
		Priority:  priority,
		DueDate:   req.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if id, ok := parseOptionalID(req.ProjectID); ok {
		task.ProjectID = id
	}
	if id, ok := parseOptionalID(req.ContactID); ok {
		task.ContactID = id
	}
	if id, ok := parseOptionalID(req.AssigneeID); ok {
		task.AssigneeID = id
	}

	if err := s.repo.Insert(ctx, s.db, &task); err != nil {
		return domain.Task{}, err
	}

	return task, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateTaskRequest) (domain.Task, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Task{}, domain.ErrInvalidOrganization
	}

	id, err := parseID(req.ID)
	if err != nil {
		return domain.Task{}, err
	}

	task, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Task{}, err
	}
	if task == nil {
		return domain.Task{}, domain.ErrNotFound
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return domain.Task{}, domain.ErrInvalidTitle
		}
		task.Title = title
	}
	if req.Notes != nil {
		task.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Status != nil {
		if !validStatuses[*req.Status] {
			return domain.Task{}, domain.ErrInvalidStatus
		}
		task.Status = *req.Status
	}
	if req.Priority != nil {
		if !validPriorities[*req.Priority] {
			return domain.Task{}, domain.ErrInvalidPriority
		}
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, task); err != nil {
		return domain.Task{}, err
	}

	return *task, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Task, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Task{}, domain.ErrInvalidOrganization
	}

	id, err := parseID(rawID)
	if err != nil {
		return domain.Task{}, err
	}

	task, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Task{}, err
	}
	if task == nil {
		return domain.Task{}, domain.ErrNotFound
	}

	return *task, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTaskRequest) ([]domain.Task, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	items, err := s.repo.List(ctx, s.db, orgID, req)
	if err != nil {
		return nil, err
	}

	tasks := make([]domain.Task, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		tasks = append(tasks, *item)
	}
	return tasks, nil
}

func (s *Service) SoftDelete(ctx context.Context, rawID string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOrganization
	}

	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	task, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return err
	}
	if task == nil {
		return domain.ErrNotFound
	}

	return s.repo.SoftDelete(ctx, s.db, orgID, id)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func parseOptionalID(value string) (snowflake.ID, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(value)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
