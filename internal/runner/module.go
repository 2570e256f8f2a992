package runner

import (
	"context"

	"tradego/internal/modules/config"
	ledgersvc "tradego/internal/modules/ledger/service"
	"tradego/internal/notify"
	"tradego/pkg/logger"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			newNotifier,
			New, // *Runner
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			r *Runner,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					r.Start(ctx)
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					r.Stop(stopCtx)
					return nil
				},
			})
		}),
	)
}

// newNotifier: телеграм при настроенном токене, иначе stdout.
func newNotifier(cfg *config.Config, settings *config.Settings, ledger *ledgersvc.Engine, lc fx.Lifecycle, ctx context.Context) Notifier {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		return notify.NewStdout()
	}

	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, ledger, settings)
	if err != nil {
		logger.Error("telegram init failed, falling back to stdout: %v", err)
		return notify.NewStdout()
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return tg.Start(ctx)
		},
	})
	return tg
}
