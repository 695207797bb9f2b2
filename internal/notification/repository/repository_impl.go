package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/orbitcrm/orbitcrm/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	return db.WithContext(ctx).Create(n).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Notification, error) {
	var n domain.Notification
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Take(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, req domain.ListNotificationRequest) ([]domain.Notification, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("org_id = ?", orgID)
	if req.UnreadOnly {
		stmt = stmt.Where("read_at IS NULL")
	}
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var notifications []domain.Notification
	err := stmt.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	return db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("org_id = ? AND id = ?", n.OrgID, n.ID).
		Update("read_at", n.ReadAt).Error
}
