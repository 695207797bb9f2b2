package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
	InvoiceStatusVoid  InvoiceStatus = "void"
)

// transitions maps each status to the statuses it may move to.
var transitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft: {InvoiceStatusSent, InvoiceStatusVoid},
	InvoiceStatusSent:  {InvoiceStatusPaid, InvoiceStatusVoid},
	InvoiceStatusPaid:  {},
	InvoiceStatusVoid:  {},
}

func (s InvoiceStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the status may move to next.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InvoiceItem is one line on an invoice. Amounts are minor units.
type InvoiceItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
	Amount      int64  `json:"amount"`
}

type Invoice struct {
	ID           snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID   `gorm:"not null;index" json:"organization_id"`
	ContactID    snowflake.ID   `gorm:"not null;index" json:"contact_id"`
	Number       string         `gorm:"not null" json:"number"`
	Status       InvoiceStatus  `gorm:"type:text;not null;default:'draft'" json:"status"`
	CurrencyCode string         `gorm:"type:text;not null" json:"currency_code"`
	Items        datatypes.JSON `gorm:"type:jsonb" json:"items"`
	Subtotal     int64          `gorm:"not null;default:0" json:"subtotal"`
	Tax          int64          `gorm:"not null;default:0" json:"tax"`
	Total        int64          `gorm:"not null;default:0" json:"total"`
	IssuedAt     *time.Time     `json:"issued_at,omitempty"`
	DueAt        *time.Time     `json:"due_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt    *time.Time     `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (Invoice) TableName() string { return "invoices" }
