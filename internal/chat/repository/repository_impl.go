package repository

import (
	"context"
	"errors"

	"github.com/orbitcrm/orbitcrm/internal/chat/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindModelTier(ctx context.Context, db *gorm.DB, model string) (*domain.ModelTier, error) {
	var tier domain.ModelTier
	err := db.WithContext(ctx).
		Where("model = ?", model).
		Take(&tier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *repo) ListModelTiers(ctx context.Context, db *gorm.DB) ([]domain.ModelTier, error) {
	var tiers []domain.ModelTier
	if err := db.WithContext(ctx).Order("model ASC").Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *repo) InsertUsage(ctx context.Context, db *gorm.DB, record *domain.UsageRecord) error {
	return db.WithContext(ctx).Create(record).Error
}
