package task

import (
	"github.com/orbitcrm/orbitcrm/internal/task/repository"
	"github.com/orbitcrm/orbitcrm/internal/task/service"
	"go.uber.org/fx"
)

var Module = fx.Module("task.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
