package service

import (
	"context"
	"time"

	"tradego/internal/models"
)

// Outcome — фильтр по знаку чистого P&L.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
)

// TradeFilter — фильтры выборки закрытых сделок. Нулевые значения = без фильтра.
type TradeFilter struct {
	Since    time.Time
	Until    time.Time
	Strategy models.StrategyType
	Symbol   string
	Product  models.Product
	Outcome  Outcome
}

// TradeStore — долговечное хранилище сделок и дневных снапшотов.
// Upsert по ключу обязан быть атомарным, на этом держится идемпотентность
// закрытия.
type TradeStore interface {
	SaveTrade(ctx context.Context, t models.Trade) error
	GetTrade(ctx context.Context, tradeID string) (models.Trade, bool, error)
	OpenTrades(ctx context.Context) ([]models.Trade, error)
	ClosedTrades(ctx context.Context, f TradeFilter) ([]models.Trade, error)
	SavePortfolio(ctx context.Context, p models.Portfolio) error
}

func (f TradeFilter) matches(t models.Trade) bool {
	if !f.Since.IsZero() && t.EntryTime.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && t.EntryTime.After(f.Until) {
		return false
	}
	if f.Strategy != "" && t.Strategy != f.Strategy {
		return false
	}
	if f.Symbol != "" && t.Symbol != f.Symbol {
		return false
	}
	if f.Product != "" && t.Product != f.Product {
		return false
	}
	if f.Outcome == OutcomeWin && t.NetPnL <= 0 {
		return false
	}
	if f.Outcome == OutcomeLoss && t.NetPnL >= 0 {
		return false
	}
	return true
}
