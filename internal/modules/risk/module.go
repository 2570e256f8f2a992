package risk

import (
	mdsvc "tradego/internal/modules/marketdata/service"
	"tradego/internal/modules/risk/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("risk",
		fx.Provide(
			func(s *mdsvc.Service) service.BarSource { return s },
			service.NewManager,
		),
	)
}
