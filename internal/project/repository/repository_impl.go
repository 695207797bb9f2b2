package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/orbitcrm/orbitcrm/internal/project/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Create(project).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("org_id = ? AND id = ? AND deleted_at IS NULL", project.OrgID, project.ID).
		Updates(map[string]any{
			"name":        project.Name,
			"description": project.Description,
			"status":      project.Status,
			"due_date":    project.DueDate,
			"updated_at":  project.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Project, error) {
	var project domain.Project
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ? AND deleted_at IS NULL", orgID, id).
		Take(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListProjectRequest) ([]*domain.Project, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("org_id = ? AND deleted_at IS NULL", orgID)
	if filter.ContactID != "" {
		if contactID, err := snowflake.ParseString(filter.ContactID); err == nil {
			stmt = stmt.Where("contact_id = ?", contactID)
		}
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var projects []*domain.Project
	if err := stmt.Order("created_at desc, id desc").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repo) ListByContact(ctx context.Context, db *gorm.DB, orgID, contactID snowflake.ID) ([]*domain.Project, error) {
	var projects []*domain.Project
	err := db.WithContext(ctx).
		Where("org_id = ? AND contact_id = ? AND deleted_at IS NULL", orgID, contactID).
		Order("created_at desc, id desc").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repo) SoftDelete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("org_id = ? AND id = ? AND deleted_at IS NULL", orgID, id).
		Update("deleted_at", time.Now().UTC()).Error
}

func (r *repo) InsertMilestone(ctx context.Context, db *gorm.DB, milestone *domain.Milestone) error {
	return db.WithContext(ctx).Create(milestone).Error
}

func (r *repo) FindMilestone(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Milestone, error) {
	var milestone domain.Milestone
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Take(&milestone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &milestone, nil
}

func (r *repo) UpdateMilestone(ctx context.Context, db *gorm.DB, milestone *domain.Milestone) error {
	return db.WithContext(ctx).
		Model(&domain.Milestone{}).
		Where("org_id = ? AND id = ?", milestone.OrgID, milestone.ID).
		Updates(map[string]any{
			"name":         milestone.Name,
			"due_date":     milestone.DueDate,
			"completed_at": milestone.CompletedAt,
		}).Error
}

func (r *repo) ListMilestones(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) ([]*domain.Milestone, error) {
	var milestones []*domain.Milestone
	err := db.WithContext(ctx).
		Where("org_id = ? AND project_id = ?", orgID, projectID).
		Order("due_date asc, id asc").
		Find(&milestones).Error
	if err != nil {
		return nil, err
	}
	return milestones, nil
}
