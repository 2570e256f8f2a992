package learner

import (
	"tradego/internal/modules/learner/service"
	ledgersvc "tradego/internal/modules/ledger/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("learner",
		fx.Provide(
			func(e *ledgersvc.Engine) service.TradeSource { return e },
			service.NewService,
		),
	)
}
