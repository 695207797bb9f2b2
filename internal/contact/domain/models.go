package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Contact struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	Name      string            `gorm:"not null" json:"name"`
	Email     string            `gorm:"not null;index" json:"email"`
	Phone     string            `gorm:"column:phone" json:"phone,omitempty"`
	Company   string            `gorm:"column:company" json:"company,omitempty"`
	Tags      datatypes.JSON    `gorm:"type:jsonb" json:"tags,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt *time.Time        `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (Contact) TableName() string { return "contacts" }

// ExportFields lists the columns a contact export may project, in their
// canonical order.
var ExportFields = []string{"id", "name", "email", "phone", "company", "created_at"}

// DeletionCertificate records a completed GDPR hard delete. One certificate
// is returned per delete call; the categories list every table touched.
type DeletionCertificate struct {
	CertificateID string             `json:"certificate_id"`
	ContactID     string             `json:"contact_id"`
	OrgID         string             `json:"organization_id"`
	DeletedAt     time.Time          `json:"deleted_at"`
	Categories    []DeletedCategory  `json:"categories"`
}

type DeletedCategory struct {
	Category string `json:"category"`
	Rows     int64  `json:"rows"`
}
