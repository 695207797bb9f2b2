package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/orbitcrm/orbitcrm/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contact *Contact) error
	Update(ctx context.Context, db *gorm.DB, contact *Contact) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Contact, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListContactFilter, page pagination.Pagination) ([]*Contact, error)
	ListAll(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*Contact, error)
	SoftDelete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
	// HardDeleteCascade removes the contact row and all rows referencing it.
	// Returns deleted row counts keyed by category.
	HardDeleteCascade(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (map[string]int64, error)
}
