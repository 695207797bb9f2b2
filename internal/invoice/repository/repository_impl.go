package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/orbitcrm/orbitcrm/internal/invoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ? AND id = ? AND deleted_at IS NULL", invoice.OrgID, invoice.ID).
		Updates(map[string]any{
			"status":     invoice.Status,
			"items":      invoice.Items,
			"subtotal":   invoice.Subtotal,
			"tax":        invoice.Tax,
			"total":      invoice.Total,
			"issued_at":  invoice.IssuedAt,
			"due_at":     invoice.DueAt,
			"updated_at": invoice.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ? AND deleted_at IS NULL", orgID, id).
		Take(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListInvoiceFilter) ([]domain.Invoice, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ? AND deleted_at IS NULL", orgID)
	if filter.ContactID != 0 {
		stmt = stmt.Where("contact_id = ?", filter.ContactID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.ExcludeDrafts {
		stmt = stmt.Where("status <> ?", domain.InvoiceStatusDraft)
	}

	var invoices []domain.Invoice
	if err := stmt.Order("created_at DESC, id DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) CountForOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ?", orgID).
		Count(&count).Error
	return count, err
}
