package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Kind string

const (
	KindPortalInvite Kind = "portal_invite"
	KindInvoiceSent  Kind = "invoice_sent"
	KindGeneral      Kind = "general"
)

// Notification is an in-app message for staff. ContactID links the
// notification to the contact it concerns, zero when none; the GDPR
// cascade deletes by that column.
type Notification struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"organization_id"`
	UserID    snowflake.ID `gorm:"index" json:"user_id"`
	ContactID snowflake.ID `gorm:"index" json:"contact_id,omitempty"`
	Kind      Kind         `gorm:"type:text;not null;default:'general'" json:"kind"`
	Title     string       `gorm:"not null" json:"title"`
	Body      string       `gorm:"type:text" json:"body"`
	ReadAt    *time.Time   `json:"read_at,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
