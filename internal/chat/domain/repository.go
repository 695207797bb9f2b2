package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindModelTier(ctx context.Context, db *gorm.DB, model string) (*ModelTier, error)
	ListModelTiers(ctx context.Context, db *gorm.DB) ([]ModelTier, error)
	InsertUsage(ctx context.Context, db *gorm.DB, record *UsageRecord) error
}
