package broker

import (
	"context"

	brokersvc "tradego/internal/modules/broker/service"
	mdsvc "tradego/internal/modules/marketdata/service"

	"go.uber.org/fx"
)

// Module поднимает брокерский REST-клиент и ws-фид последних цен.
// Клиент заодно закрывает контракт поставщика свечей для слоя данных.
func Module() fx.Option {
	return fx.Module("broker",
		fx.Provide(
			brokersvc.NewClient,
			brokersvc.NewFeed,
			func(c *brokersvc.Client) mdsvc.BarProvider { return c },
		),
		fx.Invoke(func(lc fx.Lifecycle, f *brokersvc.Feed) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go f.Start(context.Background())
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return nil
				},
			})
		}),
	)
}
