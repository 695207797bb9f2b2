package notification

import (
	"go.uber.org/fx"

	"github.com/orbitcrm/orbitcrm/internal/notification/repository"
	"github.com/orbitcrm/orbitcrm/internal/notification/service"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
