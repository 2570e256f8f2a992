package signals

import (
	"tradego/internal/modules/signals/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("signals",
		fx.Provide(
			service.NewEngine,
		),
	)
}
