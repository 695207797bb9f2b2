package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/orbitcrm/orbitcrm/internal/orgcontext"
	"github.com/orbitcrm/orbitcrm/internal/project/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("project.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

var validStatuses = map[domain.ProjectStatus]bool{
	domain.StatusPlanning:  true,
	domain.StatusActive:    true,
	domain.StatusOnHold:    true,
	domain.StatusCompleted: true,
	domain.StatusArchived:  true,
}

func (s *Service) Create(ctx context.Context, req domain.CreateProjectRequest) (domain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Project{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Project{}, domain.ErrInvalidName
	}

	var contactID snowflake.ID
	if strings.TrimSpace(req.ContactID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(req.ContactID))
		if err != nil {
			return domain.Project{}, domain.ErrInvalidID
		}
		contactID = parsed
	}

	now := time.Now().UTC()
	project := domain.Project{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		ContactID:   contactID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Status:      domain.StatusPlanning,
		DueDate:     req.DueDate,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &project); err != nil {
		return domain.Project{}, err
	}

	return project, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProjectRequest) (domain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Project{}, domain.ErrInvalidOrganization
	}

	id, err := parseID(req.ID)
	if err != nil {
		return domain.Project{}, err
	}

	project, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Project{}, err
	}
	if project == nil {
		return domain.Project{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Project{}, domain.ErrInvalidName
		}
		project.Name = name
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		if !validStatuses[*req.Status] {
			return domain.Project{}, domain.ErrInvalidStatus
		}
		project.Status = *req.Status
	}
	if req.DueDate != nil {
		project.DueDate = req.DueDate
	}
	project.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, project); err != nil {
		return domain.Project{}, err
	}

	return *project, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Project{}, domain.ErrInvalidOrganization
	}

	id, err := parseID(rawID)
	if err != nil {
		return domain.Project{}, err
	}

	project, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Project{}, err
	}
	if project == nil {
		return domain.Project{}, domain.ErrNotFound
	}

	return *project, nil
}

func (s *Service) List(ctx context.Context, req domain.ListProjectRequest) ([]domain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	items, err := s.repo.List(ctx, s.db, orgID, req)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
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

	project, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return err
	}
	if project == nil {
		return domain.ErrNotFound
	}

	return s.repo.SoftDelete(ctx, s.db, orgID, id)
}

func (s *Service) CreateMilestone(ctx context.Context, req domain.CreateMilestoneRequest) (domain.Milestone, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Milestone{}, domain.ErrInvalidOrganization
	}

	projectID, err := parseID(req.ProjectID)
	if err != nil {
		return domain.Milestone{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Milestone{}, domain.ErrInvalidName
	}

	project, err := s.repo.FindByID(ctx, s.db, orgID, projectID)
	if err != nil {
		return domain.Milestone{}, err
	}
	if project == nil {
		return domain.Milestone{}, domain.ErrNotFound
	}

	milestone := domain.Milestone{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		ProjectID: projectID,
		Name:      name,
		DueDate:   req.DueDate,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.InsertMilestone(ctx, s.db, &milestone); err != nil {
		return domain.Milestone{}, err
	}

	return milestone, nil
}

func (s *Service) CompleteMilestone(ctx context.Context, rawID string) (domain.Milestone, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Milestone{}, domain.ErrInvalidOrganization
	}

	id, err := parseID(rawID)
	if err != nil {
		return domain.Milestone{}, err
	}

	milestone, err := s.repo.FindMilestone(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Milestone{}, err
	}
	if milestone == nil {
		return domain.Milestone{}, domain.ErrMilestoneNotFound
	}

	now := time.Now().UTC()
	milestone.CompletedAt = &now
	if err := s.repo.UpdateMilestone(ctx, s.db, milestone); err != nil {
		return domain.Milestone{}, err
	}

	return *milestone, nil
}

func (s *Service) ListMilestones(ctx context.Context, rawProjectID string) ([]domain.Milestone, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	projectID, err := parseID(rawProjectID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListMilestones(ctx, s.db, orgID, projectID)
	if err != nil {
		return nil, err
	}

	milestones := make([]domain.Milestone, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		milestones = append(milestones, *item)
	}
	return milestones, nil
}

func (s *Service) ListForContact(ctx context.Context, rawOrgID, rawContactID string) ([]domain.Project, error) {
	orgID, err := parseID(rawOrgID)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}
	contactID, err := parseID(rawContactID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByContact(ctx, s.db, orgID, contactID)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func deref(items []*domain.Project) []domain.Project {
	projects := make([]domain.Project, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		projects = append(projects, *item)
	}
	return projects
}
