package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListInvoiceFilter struct {
	ContactID snowflake.ID
	Status    InvoiceStatus
	// ExcludeDrafts hides draft invoices; set for portal listings.
	ExcludeDrafts bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListInvoiceFilter) ([]Invoice, error)
	CountForOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error)
}
