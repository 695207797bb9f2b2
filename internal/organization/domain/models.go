package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Tier is an organization's subscription tier. Tiers form a total order:
// free < pro < business < enterprise.
type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierBusiness   Tier = "business"
	TierEnterprise Tier = "enterprise"
)

var tierRanks = map[Tier]int{
	TierFree:       0,
	TierPro:        1,
	TierBusiness:   2,
	TierEnterprise: 3,
}

// Rank returns the tier's position in the total order, or -1 for an
// unknown tier. Callers must guard the unknown case.
func (t Tier) Rank() int {
	rank, ok := tierRanks[t]
	if !ok {
		return -1
	}
	return rank
}

type Organization struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"not null" json:"name"`
	Slug      string            `gorm:"not null;uniqueIndex" json:"slug"`
	PlanTier  Tier              `gorm:"column:plan_tier;not null;default:'free'" json:"plan_tier"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Organization) TableName() string { return "organizations" }

type Member struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index:idx_members_org_user,unique" json:"organization_id"`
	UserID    snowflake.ID `gorm:"not null;index:idx_members_org_user,unique" json:"user_id"`
	Role      string       `gorm:"not null;default:'member'" json:"role"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Member) TableName() string { return "organization_members" }

// TokenBalance holds an organization's AI token counters. All three are
// non-negative and only CheckAndDeduct mutates them; the daily and monthly
// resets run outside this service.
type TokenBalance struct {
	OrgID           snowflake.ID `gorm:"primaryKey;column:org_id" json:"organization_id"`
	MonthlyTokens   int64        `gorm:"not null;default:0" json:"monthly_tokens"`
	PackTokens      int64        `gorm:"not null;default:0" json:"pack_tokens"`
	DailyFreeTokens int64        `gorm:"not null;default:0" json:"daily_free_tokens"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (TokenBalance) TableName() string { return "organization_token_balances" }
