package llm

import (
	"go.uber.org/fx"

	"github.com/orbitcrm/orbitcrm/internal/chat/domain"
	"github.com/orbitcrm/orbitcrm/internal/config"
)

var Module = fx.Module("providers.llm",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) domain.Completer {
	return NewClient(Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Timeout: cfg.LLM.Timeout,
	})
}
