package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PortalAccess records whether a contact may use the client portal.
type PortalAccess struct {
	ContactID snowflake.ID `gorm:"primaryKey" json:"contact_id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Enabled   bool         `gorm:"not null;default:false" json:"enabled"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PortalAccess) TableName() string { return "portal_access" }

// PortalToken is a one-time magic-link token. Only the sha256 hash is
// stored; ConsumedAt flips exactly once on exchange.
type PortalToken struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ContactID snowflake.ID `gorm:"not null;index" json:"contact_id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"organization_id"`
	TokenHash string       `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time  `json:"consumed_at,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PortalToken) TableName() string { return "portal_tokens" }

// Session is the denormalized snapshot carried in the signed portal
// cookie. Requests after the exchange never touch the token table.
type Session struct {
	ContactID string    `json:"contact_id"`
	OrgID     string    `json:"organization_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
}
