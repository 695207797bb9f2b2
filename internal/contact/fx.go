package contact

import (
	"github.com/orbitcrm/orbitcrm/internal/contact/repository"
	"github.com/orbitcrm/orbitcrm/internal/contact/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contact.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
