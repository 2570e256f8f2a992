package marketdata

import (
	"tradego/internal/modules/marketdata/service"

	"go.uber.org/fx"
)

// Module поднимает слой данных: свечи, новости, индикаторы, watchlist.
func Module() fx.Option {
	return fx.Module("marketdata",
		fx.Provide(
			service.NewHTTPNewsClient,
			func(c *service.HTTPNewsClient) service.NewsProvider { return c },
			service.NewService,
		),
	)
}
