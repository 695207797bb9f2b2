package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/orbitcrm/orbitcrm/internal/contact/domain"
	"github.com/orbitcrm/orbitcrm/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, contact *domain.Contact) error {
	return db.WithContext(ctx).Create(contact).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, contact *domain.Contact) error {
	return db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("org_id = ? AND id = ? AND deleted_at IS NULL", contact.OrgID, contact.ID).
		Updates(map[string]any{
			"name":       contact.Name,
			"email":      contact.Email,
			"phone":      contact.Phone,
			"company":    contact.Company,
			"updated_at": contact.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Contact, error) {
	var contact domain.Contact
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ? AND deleted_at IS NULL", orgID, id).
		Take(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListContactFilter, page pagination.Pagination) ([]*domain.Contact, error) {
	var contacts []*domain.Contact
	stmt := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("org_id = ? AND deleted_at IS NULL", orgID)
	if filter.Email != "" {
		stmt = stmt.Where("email = ?", filter.Email)
	}
	if filter.Company != "" {
		stmt = stmt.Where("company = ?", filter.Company)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err == nil && cursor.CreatedAt != "" {
			if after, err := time.Parse(time.RFC3339, cursor.CreatedAt); err == nil {
				stmt = stmt.Where("created_at < ?", after)
			}
		}
	}
	if page.PageSize > 0 {
		stmt = stmt.Limit(page.PageSize + 1)
	}

	err := stmt.
		Order("created_at desc, id desc").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*domain.Contact, error) {
	var contacts []*domain.Contact
	err := db.WithContext(ctx).
		Where("org_id = ? AND deleted_at IS NULL", orgID).
		Order("created_at asc, id asc").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *repo) SoftDelete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("org_id = ? AND id = ? AND deleted_at IS NULL", orgID, id).
		Update("deleted_at", time.Now().UTC()).Error
}

// cascadeTables maps deletion-certificate categories to the tables holding
// rows keyed by contact id. Order matters: children first, contact last.
var cascadeTables = []struct {
	category string
	table    string
}{
	{"portal_tokens", "portal_tokens"},
	{"portal_access", "portal_access"},
	{"tasks", "tasks"},
	{"projects", "projects"},
	{"invoices", "invoices"},
	{"notifications", "notifications"},
}

func (r *repo) HardDeleteCascade(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (map[string]int64, error) {
	counts := make(map[string]int64, len(cascadeTables)+1)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range cascadeTables {
			res := tx.Exec("DELETE FROM "+t.table+" WHERE org_id = ? AND contact_id = ?", orgID, id)
			if res.Error != nil {
				return res.Error
			}
			counts[t.category] = res.RowsAffected
		}

		res := tx.Exec("DELETE FROM contacts WHERE org_id = ? AND id = ?", orgID, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		counts["contact"] = res.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}

	return counts, nil
}
