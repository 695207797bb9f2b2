package email

import (
	"go.uber.org/fx"

	"github.com/orbitcrm/orbitcrm/internal/config"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) (Provider, error) {
	if cfg.Email.SMTPHost == "" {
		return &NoOpProvider{}, nil
	}
	return NewSMTP(Config{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUsername,
		Password: cfg.Email.SMTPPassword,
		From:     cfg.Email.SMTPFrom,
	})
}
