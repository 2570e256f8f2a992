package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradego/internal/models"
	"tradego/internal/modules/config"
	"tradego/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func ledgerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Risk.TotalCapital = 1_000_000
	return cfg
}

func newTestEngine(t *testing.T) (*Engine, *time.Time) {
	t.Helper()
	e := NewEngine(ledgerConfig(), NewMemoryStore())
	now := time.Date(2025, 9, 1, 10, 15, 0, 0, time.UTC)
	e.now = func() time.Time { return now }
	return e, &now
}

func buySignal() models.Signal {
	return models.Signal{
		Symbol:     "TCS",
		Strategy:   models.StrategyNewsMomentum,
		Direction:  models.SideBuy,
		Entry:      2500,
		StopLoss:   2480,
		Target:     2550,
		Confidence: 0.8,
		Product:    models.ProductIntraday,
	}
}

func TestCreateTrade(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	trade, err := e.CreateTrade(ctx, buySignal(), models.PositionSize{Quantity: 100, RiskAmount: 2000},
		OrderIDs{Entry: "E1", Target: "T1", SL: "S1"})
	require.NoError(t, err)

	assert.Equal(t, "TCS_20250901_101500", trade.TradeID)
	assert.Equal(t, models.TradeOpen, trade.Status)
	assert.Equal(t, 100, trade.Quantity)
	assert.Equal(t, "E1", trade.EntryOrderID)

	got, ok, err := e.GetTrade(ctx, trade.TradeID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, trade.TradeID, got.TradeID)
}

func TestCloseTradePnL(t *testing.T) {
	e, now := newTestEngine(t)
	ctx := context.Background()

	trade, err := e.CreateTrade(ctx, buySignal(), models.PositionSize{Quantity: 100}, OrderIDs{})
	require.NoError(t, err)

	*now = now.Add(90 * time.Minute)
	closed, err := e.CloseTrade(ctx, trade.TradeID, 2550, models.ExitTarget, 50)
	require.NoError(t, err)

	assert.Equal(t, models.TradeClosed, closed.Status)
	assert.InDelta(t, 5000, closed.GrossPnL, 1e-9) // (2550-2500)*100
	assert.InDelta(t, 4950, closed.NetPnL, 1e-9)
	// интрадей: капитал с маржой = 2500*100/5 = 50000
	assert.InDelta(t, 9.9, closed.PnLPercent, 1e-9)
	assert.Equal(t, 90, closed.HoldingMinutes)
	assert.Equal(t, models.ExitTarget, closed.ExitReason)
	require.NotNil(t, closed.ExitTime)
}

func TestCloseTradeDeliveryPercent(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	sig := buySignal()
	sig.Product = models.ProductDelivery
	trade, err := e.CreateTrade(ctx, sig, models.PositionSize{Quantity: 100}, OrderIDs{})
	require.NoError(t, err)

	closed, err := e.CloseTrade(ctx, trade.TradeID, 2550, models.ExitTarget, 0)
	require.NoError(t, err)
	// без плеча: 5000 / 250000 * 100
	assert.InDelta(t, 2.0, closed.PnLPercent, 1e-9)
}

func TestCloseTradeIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	trade, err := e.CreateTrade(ctx, buySignal(), models.PositionSize{Quantity: 100}, OrderIDs{})
	require.NoError(t, err)

	first, err := e.CloseTrade(ctx, trade.TradeID, 2550, models.ExitTarget, 50)
	require.NoError(t, err)

	// повторное закрытие с другой ценой ничего не меняет
	second, err := e.CloseTrade(ctx, trade.TradeID, 2400, models.ExitStopLoss, 0)
	require.NoError(t, err)
	assert.Equal(t, first.NetPnL, second.NetPnL)
	assert.Equal(t, first.ExitPrice, second.ExitPrice)
	assert.Equal(t, first.ExitReason, second.ExitReason)
}

func TestCloseTradeUnknown(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.CloseTrade(context.Background(), "NOPE_1", 100, models.ExitManual, 0)
	assert.Error(t, err)
}

func TestUpdatePositionExcursions(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	trade, err := e.CreateTrade(ctx, buySignal(), models.PositionSize{Quantity: 100}, OrderIDs{})
	require.NoError(t, err)

	get := func() models.Trade {
		got, ok, err := e.GetTrade(ctx, trade.TradeID)
		require.NoError(t, err)
		require.True(t, ok)
		return got
	}

	// просадка до 2490: MAE -1000
	require.NoError(t, e.UpdatePosition(ctx, trade.TradeID, 2490))
	assert.InDelta(t, -1000, get().MAE, 1e-9)
	assert.Zero(t, get().MFE)

	// рост до 2520: MFE +2000, MAE не откатывается
	require.NoError(t, e.UpdatePosition(ctx, trade.TradeID, 2520))
	assert.InDelta(t, -1000, get().MAE, 1e-9)
	assert.InDelta(t, 2000, get().MFE, 1e-9)

	// промежуточная цена ничего не двигает
	require.NoError(t, e.UpdatePosition(ctx, trade.TradeID, 2505))
	assert.InDelta(t, -1000, get().MAE, 1e-9)
	assert.InDelta(t, 2000, get().MFE, 1e-9)

	// по закрытой сделке апдейт игнорируется
	_, err = e.CloseTrade(ctx, trade.TradeID, 2550, models.ExitTarget, 0)
	require.NoError(t, err)
	require.NoError(t, e.UpdatePosition(ctx, trade.TradeID, 2000))
	assert.InDelta(t, -1000, get().MAE, 1e-9)
}

func TestGetDailyPnL(t *testing.T) {
	e, now := newTestEngine(t)
	ctx := context.Background()

	// интрадей-плюс
	t1, err := e.CreateTrade(ctx, buySignal(), models.PositionSize{Quantity: 100}, OrderIDs{})
	require.NoError(t, err)
	_, err = e.CloseTrade(ctx, t1.TradeID, 2510, models.ExitTarget, 0) // +1000
	require.NoError(t, err)

	// свинг-минус
	*now = now.Add(time.Second)
	sig := buySignal()
	sig.Symbol = "INFY"
	sig.Entry = 1500
	sig.Product = models.ProductDelivery
	t2, err := e.CreateTrade(ctx, sig, models.PositionSize{Quantity: 20}, OrderIDs{})
	require.NoError(t, err)
	_, err = e.CloseTrade(ctx, t2.TradeID, 1480, models.ExitStopLoss, 0) // -400
	require.NoError(t, err)

	// открытая позиция с нереализованным плюсом
	*now = now.Add(time.Second)
	sig3 := buySignal()
	sig3.Symbol = "RELIANCE"
	sig3.Entry = 3000
	_, err = e.CreateTrade(ctx, sig3, models.PositionSize{Quantity: 10, RiskAmount: 3000}, OrderIDs{})
	require.NoError(t, err)

	ltp := func(symbol string) (float64, bool) {
		if symbol == "RELIANCE" {
			return 3050, true
		}
		return 0, false
	}

	p, err := e.GetDailyPnL(ctx, *now, ltp)
	require.NoError(t, err)

	assert.InDelta(t, 600, p.RealizedPnL, 1e-9)
	assert.InDelta(t, 500, p.UnrealizedPnL, 1e-9) // (3050-3000)*10
	assert.InDelta(t, 1100, p.TotalPnL, 1e-9)

	assert.Equal(t, 1, p.IntradayTrades)
	assert.Equal(t, 1, p.IntradayWins)
	assert.Equal(t, 1, p.SwingTrades)
	assert.Equal(t, 1, p.SwingLosses)

	// открытый интрадей: маржа 3000*10/5
	assert.InDelta(t, 6000, p.DeployedCapital, 1e-9)
	assert.InDelta(t, 3000.0/1_000_000, p.PortfolioHeat, 1e-9)

	assert.InDelta(t, 50, p.WinRate, 1e-9)       // 1 из 2
	assert.InDelta(t, 2.5, p.ProfitFactor, 1e-9) // 1000/400

	// снапшот закэширован по дате
	store := e.store.(*MemoryStore)
	_, ok := store.portfolios[now.Format("2006-01-02")]
	assert.True(t, ok)
}

func TestMemoryStoreFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

	trades := []models.Trade{
		{TradeID: "A", Strategy: models.StrategyBreakout, Status: models.TradeClosed, EntryTime: base, NetPnL: 500},
		{TradeID: "B", Strategy: models.StrategyNewsMomentum, Status: models.TradeClosed, EntryTime: base.Add(time.Hour), NetPnL: -200},
		{TradeID: "C", Strategy: models.StrategyBreakout, Status: models.TradeClosed, EntryTime: base.AddDate(0, 0, -40), NetPnL: 100},
		{TradeID: "D", Strategy: models.StrategyBreakout, Status: models.TradeOpen, EntryTime: base},
	}
	for _, tr := range trades {
		require.NoError(t, store.SaveTrade(ctx, tr))
	}

	got, err := store.ClosedTrades(ctx, TradeFilter{
		Since:    base.AddDate(0, 0, -30),
		Strategy: models.StrategyBreakout,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].TradeID)

	losses, err := store.ClosedTrades(ctx, TradeFilter{Outcome: OutcomeLoss})
	require.NoError(t, err)
	require.Len(t, losses, 1)
	assert.Equal(t, "B", losses[0].TradeID)

	open, err := store.OpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "D", open[0].TradeID)
}
