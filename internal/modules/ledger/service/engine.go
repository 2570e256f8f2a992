package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradego/internal/models"
	"tradego/internal/modules/config"
	"tradego/pkg/logger"
)

// OrderIDs — брокерские идентификаторы ног сделки.
type OrderIDs struct {
	Entry  string
	Target string
	SL     string
}

// Engine — машина состояний сделки поверх хранилища.
// Один мьютекс на все мутации: монитор и торговый цикл могут закрывать
// одну сделку одновременно, гонка должна упираться в идемпотентный no-op.
type Engine struct {
	cfg   *config.Config
	store TradeStore

	mu  sync.Mutex
	now func() time.Time
}

func NewEngine(cfg *config.Config, store TradeStore) *Engine {
	return &Engine{
		cfg:   cfg,
		store: store,
		now:   time.Now,
	}
}

// CreateTrade регистрирует сделку в статусе OPEN.
// ID вида SYMBOL_yyyymmdd_hhmmss, время берётся в момент создания.
func (e *Engine) CreateTrade(ctx context.Context, sig models.Signal, size models.PositionSize, orders OrderIDs) (models.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	trade := models.Trade{
		TradeID:  fmt.Sprintf("%s_%s", sig.Symbol, now.Format("20060102_150405")),
		Symbol:   sig.Symbol,
		Strategy: sig.Strategy,

		EntryTime: now,
		Entry:     sig.Entry,
		Quantity:  size.Quantity,
		Product:   sig.Product,
		Direction: sig.Direction,

		StopLoss:   sig.StopLoss,
		Target:     sig.Target,
		RiskAmount: size.RiskAmount,

		NewsScore:  sig.NewsScore,
		TechScore:  sig.TechScore,
		Confidence: sig.Confidence,

		EntryOrderID:  orders.Entry,
		TargetOrderID: orders.Target,
		SLOrderID:     orders.SL,

		Status:    models.TradeOpen,
		UpdatedAt: now,
	}

	if err := e.store.SaveTrade(ctx, trade); err != nil {
		return models.Trade{}, err
	}

	logger.Info("created trade %s | %s %s %d @ %.2f",
		trade.TradeID, trade.Symbol, trade.Direction, trade.Quantity, trade.Entry)
	return trade, nil
}

// UpdatePosition двигает MAE/MFE по текущей цене. MAE только вниз,
// MFE только вверх; закрытые сделки не трогаем.
func (e *Engine) UpdatePosition(ctx context.Context, tradeID string, currentPrice float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	trade, ok, err := e.store.GetTrade(ctx, tradeID)
	if err != nil {
		return err
	}
	if !ok || trade.Status != models.TradeOpen {
		return nil
	}

	unrealized := trade.UnrealizedPnL(currentPrice)
	changed := false
	if unrealized < trade.MAE {
		trade.MAE = unrealized
		changed = true
	}
	if unrealized > trade.MFE {
		trade.MFE = unrealized
		changed = true
	}
	if !changed {
		return nil
	}

	trade.UpdatedAt = e.now()
	return e.store.SaveTrade(ctx, trade)
}

// CloseTrade переводит OPEN→CLOSED и фиксирует итоговый P&L.
// Повторное закрытие — no-op с warning, состояние не меняется.
func (e *Engine) CloseTrade(ctx context.Context, tradeID string, exitPrice float64, reason models.ExitReason, brokerage float64) (models.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	trade, ok, err := e.store.GetTrade(ctx, tradeID)
	if err != nil {
		return models.Trade{}, err
	}
	if !ok {
		return models.Trade{}, fmt.Errorf("trade %s not found", tradeID)
	}
	if trade.Status == models.TradeClosed {
		logger.Warn("trade %s already closed", tradeID)
		return trade, nil
	}

	now := e.now()
	trade.ExitTime = &now
	trade.ExitPrice = exitPrice
	trade.ExitReason = reason
	trade.Status = models.TradeClosed
	trade.HoldingMinutes = int(now.Sub(trade.EntryTime).Minutes())

	trade.GrossPnL = trade.UnrealizedPnL(exitPrice)
	trade.Brokerage = brokerage
	trade.NetPnL = trade.GrossPnL - brokerage

	if used := trade.CapitalUsed(); used > 0 {
		trade.PnLPercent = trade.NetPnL / used * 100
	}

	trade.UpdatedAt = now
	if err := e.store.SaveTrade(ctx, trade); err != nil {
		return models.Trade{}, err
	}

	logger.Info("closed trade %s | pnl %.2f (%.2f%%) | reason %s",
		tradeID, trade.NetPnL, trade.PnLPercent, reason)
	return trade, nil
}

func (e *Engine) GetTrade(ctx context.Context, tradeID string) (models.Trade, bool, error) {
	return e.store.GetTrade(ctx, tradeID)
}

func (e *Engine) OpenTrades(ctx context.Context) ([]models.Trade, error) {
	return e.store.OpenTrades(ctx)
}

func (e *Engine) ClosedTrades(ctx context.Context, f TradeFilter) ([]models.Trade, error) {
	return e.store.ClosedTrades(ctx, f)
}

// GetDailyPnL пересчитывает дневной снапшот из сделок и кладёт его
// в хранилище как кэш (upsert по дате). ltp может быть nil, тогда
// нереализованный P&L считается нулевым.
func (e *Engine) GetDailyPnL(ctx context.Context, day time.Time, ltp func(symbol string) (float64, bool)) (models.Portfolio, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)

	closed, err := e.store.ClosedTrades(ctx, TradeFilter{Since: dayStart, Until: dayEnd})
	if err != nil {
		return models.Portfolio{}, err
	}
	open, err := e.store.OpenTrades(ctx)
	if err != nil {
		return models.Portfolio{}, err
	}

	capital := e.cfg.Risk.TotalCapital
	p := models.Portfolio{
		Date:            dayStart,
		StartingCapital: capital,
	}

	for _, t := range closed {
		p.RealizedPnL += t.NetPnL
		switch t.Product {
		case models.ProductIntraday:
			p.IntradayPnL += t.NetPnL
			p.IntradayTrades++
			if t.NetPnL > 0 {
				p.IntradayWins++
			} else if t.NetPnL < 0 {
				p.IntradayLosses++
			}
		case models.ProductDelivery:
			p.SwingPnL += t.NetPnL
			p.SwingTrades++
			if t.NetPnL > 0 {
				p.SwingWins++
			} else if t.NetPnL < 0 {
				p.SwingLosses++
			}
		}
	}

	var riskSum float64
	for _, t := range open {
		if ltp != nil {
			if px, ok := ltp(t.Symbol); ok {
				p.UnrealizedPnL += t.UnrealizedPnL(px)
			}
		}
		p.DeployedCapital += t.CapitalUsed()
		riskSum += t.RiskAmount
	}

	p.TotalPnL = p.RealizedPnL + p.UnrealizedPnL
	p.AvailableCapital = capital - p.DeployedCapital
	if capital > 0 {
		p.PortfolioHeat = riskSum / capital
	}

	totalTrades := len(closed)
	if totalTrades > 0 {
		p.WinRate = float64(p.IntradayWins+p.SwingWins) / float64(totalTrades) * 100
	}

	var wins, losses float64
	for _, t := range closed {
		if t.NetPnL > 0 {
			wins += t.NetPnL
		} else {
			losses += -t.NetPnL
		}
	}
	if losses > 0 {
		p.ProfitFactor = wins / losses
	}

	if err := e.store.SavePortfolio(ctx, p); err != nil {
		logger.Error("save daily portfolio: %v", err)
	}
	return p, nil
}
