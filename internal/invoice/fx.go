package invoice

import (
	"go.uber.org/fx"

	"github.com/orbitcrm/orbitcrm/internal/invoice/repository"
	"github.com/orbitcrm/orbitcrm/internal/invoice/service"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
