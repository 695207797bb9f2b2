package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ProjectStatus string

const (
	StatusPlanning  ProjectStatus = "planning"
	StatusActive    ProjectStatus = "active"
	StatusOnHold    ProjectStatus = "on_hold"
	StatusCompleted ProjectStatus = "completed"
	StatusArchived  ProjectStatus = "archived"
)

type Project struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	ContactID   snowflake.ID      `gorm:"column:contact_id;index" json:"contact_id,omitempty"`
	Name        string            `gorm:"not null" json:"name"`
	Description string            `gorm:"type:text" json:"description,omitempty"`
	Status      ProjectStatus     `gorm:"not null;default:'planning'" json:"status"`
	DueDate     *time.Time        `gorm:"column:due_date" json:"due_date,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt   *time.Time        `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (Project) TableName() string { return "projects" }

type Milestone struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID `gorm:"not null;index" json:"organization_id"`
	ProjectID   snowflake.ID `gorm:"not null;index" json:"project_id"`
	Name        string       `gorm:"not null" json:"name"`
	DueDate     *time.Time   `gorm:"column:due_date" json:"due_date,omitempty"`
	CompletedAt *time.Time   `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Milestone) TableName() string { return "milestones" }
