package main

import (
	"context"
	"log"

	"tradego/internal/modules/broker"
	"tradego/internal/modules/config"
	"tradego/internal/modules/learner"
	"tradego/internal/modules/ledger"
	"tradego/internal/modules/marketdata"
	"tradego/internal/modules/postgres"
	"tradego/internal/modules/risk"
	"tradego/internal/modules/signals"
	"tradego/internal/runner"
	"tradego/pkg/logger"
	"tradego/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		broker.Module(),
		marketdata.Module(),
		ledger.Module(),
		learner.Module(),
		signals.Module(),
		risk.Module(),
		runner.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			if cfg.Jaeger.Host == "" {
				return
			}
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				logger.Error("init tracer: %v", err)
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
		}),
	)
	app.Run()
}
