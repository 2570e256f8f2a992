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
	ledgersvc "tradego/internal/modules/ledger/service"
	"tradego/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeTradeSource struct {
	byStrategy map[models.StrategyType][]models.Trade
	calls      int
}

func (f *fakeTradeSource) ClosedTrades(_ context.Context, filter ledgersvc.TradeFilter) ([]models.Trade, error) {
	f.calls++
	return f.byStrategy[filter.Strategy], nil
}

// closedTrades — wins сделок по +winPnL и losses по -lossPnL.
func closedTrades(strat models.StrategyType, wins, losses int, winPnL, lossPnL float64) []models.Trade {
	entry := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	var out []models.Trade
	for i := 0; i < wins; i++ {
		out = append(out, models.Trade{
			Strategy: strat, Status: models.TradeClosed,
			EntryTime: entry, NetPnL: winPnL, HoldingMinutes: 120,
		})
	}
	for i := 0; i < losses; i++ {
		out = append(out, models.Trade{
			Strategy: strat, Status: models.TradeClosed,
			EntryTime: entry, NetPnL: -lossPnL, HoldingMinutes: 60,
		})
	}
	return out
}

func learnerConfig() *config.Config {
	return &config.Config{
		PerfWindowDays: 30,
		PerfCacheTTL:   time.Hour,
	}
}

func newTestService(src TradeSource) *Service {
	s := NewService(learnerConfig(), src)
	s.now = func() time.Time { return time.Date(2025, 9, 1, 11, 0, 0, 0, time.UTC) }
	return s
}

func TestAggregate(t *testing.T) {
	trades := closedTrades(models.StrategyBreakout, 6, 4, 200, 100)
	perf := aggregate(models.StrategyBreakout, trades)

	assert.Equal(t, 10, perf.TotalTrades)
	assert.Equal(t, 6, perf.WinningTrades)
	assert.Equal(t, 4, perf.LosingTrades)
	assert.InDelta(t, 0.6, perf.WinRate, 1e-9)
	assert.InDelta(t, 200, perf.AvgProfit, 1e-9)
	assert.InDelta(t, 100, perf.AvgLoss, 1e-9)
	assert.InDelta(t, 3.0, perf.ProfitFactor, 1e-9) // 1200/400
	assert.InDelta(t, 800, perf.TotalPnL, 1e-9)
	assert.InDelta(t, 200, perf.BestTrade, 1e-9)
	assert.InDelta(t, -100, perf.WorstTrade, 1e-9)
}

func TestAggregateEmpty(t *testing.T) {
	perf := aggregate(models.StrategyBreakout, nil)
	assert.Zero(t, perf.TotalTrades)
	assert.InDelta(t, 1.0, perf.ConfidenceMultiplier, 1e-9)
}

func TestConfidenceMultiplierBands(t *testing.T) {
	cases := []struct {
		name   string
		wr, pf float64
		count  int
		want   float64
	}{
		{"small sample is neutral", 0.9, 3.0, 9, 1.0},
		{"strong performance", 0.65, 2.5, 20, 1.5},
		{"good winrate moderate pf", 0.57, 1.6, 20, 1.25},
		{"poor everything", 0.35, 0.8, 20, 0.6},
		{"mediocre", 0.48, 1.1, 20, 0.8},
		{"neutral middle", 0.52, 1.3, 20, 1.0},
		{"clamped above", 0.95, 10.0, 100, 1.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, confidenceMultiplier(tc.wr, tc.pf, tc.count), 1e-9)
		})
	}
}

func TestShouldTradePausesLosingStrategy(t *testing.T) {
	// 25 сделок, WR 0.32, PF < 1 => стратегия на паузе
	src := &fakeTradeSource{byStrategy: map[models.StrategyType][]models.Trade{
		models.StrategyNewsMomentum:  closedTrades(models.StrategyNewsMomentum, 8, 17, 100, 100),
		models.StrategyBreakout:      closedTrades(models.StrategyBreakout, 15, 10, 200, 100),
		models.StrategyMeanReversion: nil,
	}}
	s := newTestService(src)
	ctx := context.Background()

	assert.False(t, s.ShouldTrade(ctx, models.StrategyNewsMomentum))
	assert.True(t, s.ShouldTrade(ctx, models.StrategyBreakout))
	// нет истории => торгуем
	assert.True(t, s.ShouldTrade(ctx, models.StrategyMeanReversion))
}

func TestShouldTradeNeedsSample(t *testing.T) {
	// те же плохие показатели, но всего 15 сделок => рано выключать
	src := &fakeTradeSource{byStrategy: map[models.StrategyType][]models.Trade{
		models.StrategyNewsMomentum: closedTrades(models.StrategyNewsMomentum, 5, 10, 100, 100),
	}}
	s := newTestService(src)

	assert.True(t, s.ShouldTrade(context.Background(), models.StrategyNewsMomentum))
}

func TestMultiplier(t *testing.T) {
	src := &fakeTradeSource{byStrategy: map[models.StrategyType][]models.Trade{
		// WR 0.65, PF 3.71 => 1+0.3+0.2 = 1.5
		models.StrategyBreakout: closedTrades(models.StrategyBreakout, 13, 7, 200, 100),
		// 8 сделок => нейтрально
		models.StrategyNewsMomentum: closedTrades(models.StrategyNewsMomentum, 8, 0, 100, 0),
	}}
	s := newTestService(src)
	ctx := context.Background()

	assert.InDelta(t, 1.5, s.Multiplier(ctx, models.StrategyBreakout), 1e-9)
	assert.InDelta(t, 1.0, s.Multiplier(ctx, models.StrategyNewsMomentum), 1e-9)
	assert.InDelta(t, 1.0, s.Multiplier(ctx, models.StrategyMeanReversion), 1e-9)
}

func TestAnalyzeCaches(t *testing.T) {
	src := &fakeTradeSource{byStrategy: map[models.StrategyType][]models.Trade{}}
	s := newTestService(src)
	ctx := context.Background()

	_, err := s.Analyze(ctx, false)
	require.NoError(t, err)
	firstCalls := src.calls
	assert.Equal(t, len(models.AllStrategies), firstCalls)

	// повторный вызов в пределах TTL не ходит в хранилище
	_, err = s.Analyze(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, firstCalls, src.calls)

	// force сбрасывает кэш
	_, err = s.Analyze(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, firstCalls*2, src.calls)
}

func TestBestStrategies(t *testing.T) {
	src := &fakeTradeSource{byStrategy: map[models.StrategyType][]models.Trade{
		models.StrategyBreakout:      closedTrades(models.StrategyBreakout, 15, 5, 200, 100), // score высокий
		models.StrategyNewsMomentum:  closedTrades(models.StrategyNewsMomentum, 10, 10, 100, 100),
		models.StrategyMeanReversion: closedTrades(models.StrategyMeanReversion, 3, 2, 100, 100), // мало данных
	}}
	s := newTestService(src)

	got := s.BestStrategies(context.Background(), 2)
	require.Len(t, got, 2)
	assert.Equal(t, models.StrategyBreakout, got[0])
	assert.Equal(t, models.StrategyNewsMomentum, got[1])
}
