package providers

import (
	"go.uber.org/fx"

	"github.com/orbitcrm/orbitcrm/internal/providers/email"
	"github.com/orbitcrm/orbitcrm/internal/providers/llm"
	"github.com/orbitcrm/orbitcrm/internal/providers/pdf"
)

var Module = fx.Module("providers",
	email.Module,
	llm.Module,
	pdf.Module,
)
