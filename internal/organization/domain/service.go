package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateOrganizationRequest struct {
	Name     string
	Slug     string
	PlanTier Tier
	OwnerID  snowflake.ID
}

type DeductResult struct {
	MonthlyTokens int64 `json:"monthly_tokens"`
	PackTokens    int64 `json:"pack_tokens"`
}

type Service interface {
	Create(ctx context.Context, req CreateOrganizationRequest) (Organization, error)
	GetByID(ctx context.Context, id snowflake.ID) (Organization, error)
	GetMember(ctx context.Context, orgID, userID snowflake.ID) (Member, error)
	GetBalance(ctx context.Context, orgID snowflake.ID) (TokenBalance, error)

	// CheckAndDeduct atomically verifies that monthly+pack covers amount and
	// deducts it, monthly balance first. On insufficient balance nothing is
	// mutated and ErrInsufficientTokens is returned.
	CheckAndDeduct(ctx context.Context, orgID snowflake.ID, amount int64) (DeductResult, error)
}

var (
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidSlug        = errors.New("invalid_slug")
	ErrInvalidTier        = errors.New("invalid_tier")
	ErrNotFound           = errors.New("organization_not_found")
	ErrMemberNotFound     = errors.New("member_not_found")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInsufficientTokens = errors.New("insufficient_tokens")
)
