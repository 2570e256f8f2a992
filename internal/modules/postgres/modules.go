package postgres

import (
	"context"
	"fmt"
	"tradego/internal/modules/config"
	"tradego/pkg/db"

	"go.uber.org/fx"
)

// Module регистрируем как fx-провайдер. Пул нужен только при storage=postgres,
// для sqlite/memory возвращаем nil и к базе не ходим.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.Storage != "postgres" {
					return nil, nil
				}

				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					return nil, err
				}

				return db.NewPgTxManager(poolMaster), nil
			},
		),
	)
}
