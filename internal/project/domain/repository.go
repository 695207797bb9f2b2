package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, project *Project) error
	Update(ctx context.Context, db *gorm.DB, project *Project) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Project, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListProjectRequest) ([]*Project, error)
	ListByContact(ctx context.Context, db *gorm.DB, orgID, contactID snowflake.ID) ([]*Project, error)
	SoftDelete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error

	InsertMilestone(ctx context.Context, db *gorm.DB, milestone *Milestone) error
	FindMilestone(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Milestone, error)
	UpdateMilestone(ctx context.Context, db *gorm.DB, milestone *Milestone) error
	ListMilestones(ctx context.Context, db *gorm.DB, orgID, projectID snowflake.ID) ([]*Milestone, error)
}
