package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	UpsertAccess(ctx context.Context, db *gorm.DB, access *PortalAccess) error
	FindAccess(ctx context.Context, db *gorm.DB, orgID, contactID snowflake.ID) (*PortalAccess, error)

	InsertToken(ctx context.Context, db *gorm.DB, token *PortalToken) error
	// ConsumeToken atomically marks the token consumed and returns it. A
	// consumed, expired or unknown hash returns nil without error.
	ConsumeToken(ctx context.Context, db *gorm.DB, tokenHash string, now time.Time) (*PortalToken, error)
	// RevokeTokens consumes every live token for the contact.
	RevokeTokens(ctx context.Context, db *gorm.DB, orgID, contactID snowflake.ID, now time.Time) error
}
