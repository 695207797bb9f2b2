package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, org *Organization) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Organization, error)
	InsertMember(ctx context.Context, db *gorm.DB, member *Member) error
	FindMember(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) (*Member, error)
	InsertBalance(ctx context.Context, db *gorm.DB, balance *TokenBalance) error
	FindBalance(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*TokenBalance, error)
	// FindBalanceForUpdate locks the balance row for the enclosing transaction.
	FindBalanceForUpdate(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*TokenBalance, error)
	UpdateBalance(ctx context.Context, db *gorm.DB, balance *TokenBalance) error
}
