package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/orbitcrm/orbitcrm/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		if err := Run(conn); err != nil {
			return err
		}
		return seed.EnsureModelTiers(conn)
	}),
)
