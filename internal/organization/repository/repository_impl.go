package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/orbitcrm/orbitcrm/internal/organization/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, org *domain.Organization) error {
	return db.WithContext(ctx).Create(org).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&org).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repo) InsertMember(ctx context.Context, db *gorm.DB, member *domain.Member) error {
	return db.WithContext(ctx).Create(member).Error
}

func (r *repo) FindMember(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Take(&member).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repo) InsertBalance(ctx context.Context, db *gorm.DB, balance *domain.TokenBalance) error {
	return db.WithContext(ctx).Create(balance).Error
}

func (r *repo) FindBalance(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.TokenBalance, error) {
	return r.findBalance(ctx, db, orgID, false)
}

func (r *repo) FindBalanceForUpdate(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.TokenBalance, error) {
	return r.findBalance(ctx, db, orgID, true)
}

func (r *repo) findBalance(ctx context.Context, db *gorm.DB, orgID snowflake.ID, lock bool) (*domain.TokenBalance, error) {
	stmt := db.WithContext(ctx)
	if lock {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var balance domain.TokenBalance
	err := stmt.Where("org_id = ?", orgID).Take(&balance).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *repo) UpdateBalance(ctx context.Context, db *gorm.DB, balance *domain.TokenBalance) error {
	return db.WithContext(ctx).
		Model(&domain.TokenBalance{}).
		Where("org_id = ?", balance.OrgID).
		Updates(map[string]any{
			"monthly_tokens":    balance.MonthlyTokens,
			"pack_tokens":       balance.PackTokens,
			"daily_free_tokens": balance.DailyFreeTokens,
			"updated_at":        balance.UpdatedAt,
		}).Error
}
