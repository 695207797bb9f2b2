package chat

import (
	"go.uber.org/fx"

	"github.com/orbitcrm/orbitcrm/internal/chat/repository"
	"github.com/orbitcrm/orbitcrm/internal/chat/service"
	"github.com/orbitcrm/orbitcrm/internal/ratelimit"
)

var Module = fx.Module("chat.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(fw *ratelimit.FixedWindow) service.Limiter { return fw }),
	fx.Provide(service.New),
)
