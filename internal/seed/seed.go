// Package seed installs the rows an empty deployment needs before it can
// serve traffic.
package seed

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	chatdomain "github.com/orbitcrm/orbitcrm/internal/chat/domain"
)

// EnsureModelTiers inserts the default model catalog. Existing rows win so
// operators can re-price a model without the seed reverting it.
func EnsureModelTiers(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	tiers := chatdomain.DefaultModelTiers()
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tiers).Error
}
