package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/orbitcrm/orbitcrm/internal/task/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, task *domain.Task) error {
	return db.WithContext(ctx).Create(task).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, task *domain.Task) error {
	return db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("org_id = ? AND id = ? AND deleted_at IS NULL", task.OrgID, task.ID).
		Updates(map[string]any{
			"title":      task.Title,
			"notes":      task.Notes,
			"status":     task.Status,
			"priority":   task.Priority,
			"due_date":   task.DueDate,
			"updated_at": task.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Task, error) {
	var task domain.Task
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ? AND deleted_at IS NULL", orgID, id).
		Take(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListTaskRequest) ([]*domain.Task, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("org_id = ? AND deleted_at IS NULL", orgID)
	if filter.ProjectID != "" {
		if projectID, err := snowflake.ParseString(filter.ProjectID); err == nil {
			stmt = stmt.Where("project_id = ?", projectID)
		}
	}
	if filter.ContactID != "" {
		if contactID, err := snowflake.ParseString(filter.ContactID); err == nil {
			stmt = stmt.Where("contact_id = ?", contactID)
		}
	}
	if filter.AssigneeID != "" {
		if assigneeID, err := snowflake.ParseString(filter.AssigneeID); err == nil {
			stmt = stmt.Where("assignee_id = ?", assigneeID)
		}
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var tasks []*domain.Task
	if err := stmt.Order("created_at desc, id desc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *repo) SoftDelete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("org_id = ? AND id = ? AND deleted_at IS NULL", orgID, id).
		Update("deleted_at", time.Now().UTC()).Error
}
