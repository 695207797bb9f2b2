package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

type Task struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID `gorm:"not null;index" json:"organization_id"`
	ProjectID  snowflake.ID `gorm:"column:project_id;index" json:"project_id,omitempty"`
	ContactID  snowflake.ID `gorm:"column:contact_id;index" json:"contact_id,omitempty"`
	AssigneeID snowflake.ID `gorm:"column:assignee_id;index" json:"assignee_id,omitempty"`
	Title      string       `gorm:"not null" json:"title"`
	Notes      string       `gorm:"type:text" json:"notes,omitempty"`
	Status     TaskStatus   `gorm:"not null;default:'todo'" json:"status"`
	Priority   TaskPriority `gorm:"not null;default:'medium'" json:"priority"`
	DueDate    *time.Time   `gorm:"column:due_date" json:"due_date,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt  *time.Time   `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (Task) TableName() string { return "tasks" }
