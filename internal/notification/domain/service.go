package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateNotificationRequest struct {
	UserID    snowflake.ID
	ContactID snowflake.ID
	Kind      Kind
	Title     string
	Body      string
}

type ListNotificationRequest struct {
	UnreadOnly bool
	Limit      int
}

type Service interface {
	Create(ctx context.Context, req CreateNotificationRequest) (Notification, error)
	List(ctx context.Context, req ListNotificationRequest) ([]Notification, error)
	MarkRead(ctx context.Context, id string) (Notification, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, n *Notification) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Notification, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, req ListNotificationRequest) ([]Notification, error)
	Update(ctx context.Context, db *gorm.DB, n *Notification) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidTitle        = errors.New("invalid_title")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("notification_not_found")
)
