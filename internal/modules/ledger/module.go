package ledger

import (
	"fmt"

	"tradego/internal/modules/config"
	"tradego/internal/modules/ledger/service"
	"tradego/pkg/db"

	"go.uber.org/fx"
)

// Module выбирает бэкенд хранилища по конфигу и поднимает движок сделок.
func Module() fx.Option {
	return fx.Module("ledger",
		fx.Provide(
			newStore,
			service.NewEngine,
		),
	)
}

func newStore(cfg *config.Config, txmOpt txManagerParam) (service.TradeStore, error) {
	switch cfg.Storage {
	case "postgres":
		if txmOpt.TxM == nil {
			return nil, fmt.Errorf("storage=postgres but no tx manager available")
		}
		return service.NewPgStore(txmOpt.TxM), nil
	case "sqlite":
		return service.NewSQLiteStore(cfg.SQLitePath)
	case "memory":
		return service.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage)
	}
}

// tx manager опционален: для sqlite/memory postgres-модуль не поднимается.
type txManagerParam struct {
	fx.In

	TxM *db.PgTxManager `optional:"true"`
}
