package organization

import (
	"github.com/orbitcrm/orbitcrm/internal/organization/repository"
	"github.com/orbitcrm/orbitcrm/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
