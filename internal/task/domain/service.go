package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	ProjectID  string
	ContactID  string
	AssigneeID string
	Title      string
	Notes      string
	Priority   TaskPriority
	DueDate    *time.Time
}

type UpdateTaskRequest struct {
	ID       string
	Title    *string
	Notes    *string
	Status   *TaskStatus
	Priority *TaskPriority
	DueDate  *time.Time
}

type ListTaskRequest struct {
	ProjectID  string
	ContactID  string
	AssigneeID string
	Status     TaskStatus
}

type Service interface {
	Create(ctx context.Context, req CreateTaskRequest) (Task, error)
	Update(ctx context.Context, req UpdateTaskRequest) (Task, error)
	GetByID(ctx context.Context, id string) (Task, error)
	List(ctx context.Context, req ListTaskRequest) ([]Task, error)
	SoftDelete(ctx context.Context, id string) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, task *Task) error
	Update(ctx context.Context, db *gorm.DB, task *Task) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Task, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListTaskRequest) ([]*Task, error)
	SoftDelete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidTitle        = errors.New("invalid_title")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidPriority     = errors.New("invalid_priority")
	ErrNotFound            = errors.New("task_not_found")
)
