package portal

import (
	"go.uber.org/fx"

	"github.com/orbitcrm/orbitcrm/internal/config"
	"github.com/orbitcrm/orbitcrm/internal/portal/repository"
	"github.com/orbitcrm/orbitcrm/internal/portal/service"
	"github.com/orbitcrm/orbitcrm/internal/portal/session"
)

var Module = fx.Module("portal.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
	fx.Provide(func(cfg config.Config) *session.Codec {
		return session.NewCodec(cfg.Portal.CookieSecret, cfg.Portal.SessionTTL)
	}),
)
