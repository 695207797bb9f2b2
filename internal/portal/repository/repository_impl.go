package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/orbitcrm/orbitcrm/internal/portal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) UpsertAccess(ctx context.Context, db *gorm.DB, access *domain.PortalAccess) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contact_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
		}).
		Create(access).Error
}

func (r *repo) FindAccess(ctx context.Context, db *gorm.DB, orgID, contactID snowflake.ID) (*domain.PortalAccess, error) {
	var access domain.PortalAccess
	err := db.WithContext(ctx).
		Where("org_id = ? AND contact_id = ?", orgID, contactID).
		Take(&access).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &access, nil
}

func (r *repo) InsertToken(ctx context.Context, db *gorm.DB, token *domain.PortalToken) error {
	return db.WithContext(ctx).Create(token).Error
}

// ConsumeToken flips consumed_at in a single guarded UPDATE so that two
// concurrent exchanges of the same token cannot both succeed.
func (r *repo) ConsumeToken(ctx context.Context, db *gorm.DB, tokenHash string, now time.Time) (*domain.PortalToken, error) {
	res := db.WithContext(ctx).
		Model(&domain.PortalToken{}).
		Where("token_hash = ? AND consumed_at IS NULL AND expires_at > ?", tokenHash, now).
		Update("consumed_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	var token domain.PortalToken
	if err := db.WithContext(ctx).Where("token_hash = ?", tokenHash).Take(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *repo) RevokeTokens(ctx context.Context, db *gorm.DB, orgID, contactID snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.PortalToken{}).
		Where("org_id = ? AND contact_id = ? AND consumed_at IS NULL", orgID, contactID).
		Update("consumed_at", now).Error
}
