package migration

import (
	"gorm.io/gorm"

	authdomain "github.com/orbitcrm/orbitcrm/internal/auth/domain"
	chatdomain "github.com/orbitcrm/orbitcrm/internal/chat/domain"
	contactdomain "github.com/orbitcrm/orbitcrm/internal/contact/domain"
	invoicedomain "github.com/orbitcrm/orbitcrm/internal/invoice/domain"
	notificationdomain "github.com/orbitcrm/orbitcrm/internal/notification/domain"
	organizationdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
	portaldomain "github.com/orbitcrm/orbitcrm/internal/portal/domain"
	projectdomain "github.com/orbitcrm/orbitcrm/internal/project/domain"
	taskdomain "github.com/orbitcrm/orbitcrm/internal/task/domain"
)

// Run migrates every persisted model. gorm's AutoMigrate keeps the schema
// portable across the sqlite, postgres and mysql dialects we support.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&authdomain.User{},
		&authdomain.Session{},
		&organizationdomain.Organization{},
		&organizationdomain.Member{},
		&organizationdomain.TokenBalance{},
		&contactdomain.Contact{},
		&projectdomain.Project{},
		&projectdomain.Milestone{},
		&taskdomain.Task{},
		&invoicedomain.Invoice{},
		&portaldomain.PortalAccess{},
		&portaldomain.PortalToken{},
		&notificationdomain.Notification{},
		&chatdomain.ModelTier{},
		&chatdomain.UsageRecord{},
	)
}
