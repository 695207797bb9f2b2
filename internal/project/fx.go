package project

import (
	"github.com/orbitcrm/orbitcrm/internal/project/repository"
	"github.com/orbitcrm/orbitcrm/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
