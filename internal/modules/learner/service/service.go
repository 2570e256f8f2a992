package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"tradego/internal/models"
	"tradego/internal/modules/config"
	ledgersvc "tradego/internal/modules/ledger/service"
	"tradego/pkg/logger"
)

// минимум сделок для небейтрального множителя
const minSampleForMultiplier = 10

// TradeSource — откуда берём закрытые сделки; закрывается движком леджера.
type TradeSource interface {
	ClosedTrades(ctx context.Context, f ledgersvc.TradeFilter) ([]models.Trade, error)
}

// Service пересчитывает скользящий перформанс стратегий и выдаёт
// множитель уверенности и гейт trade/no-trade.
type Service struct {
	cfg    *config.Config
	trades TradeSource

	mu       sync.Mutex
	cache    map[models.StrategyType]models.StrategyPerformance
	cachedAt time.Time

	now func() time.Time
}

func NewService(cfg *config.Config, trades TradeSource) *Service {
	return &Service{
		cfg:    cfg,
		trades: trades,
		now:    time.Now,
	}
}

// Analyze — перформанс всех стратегий за трейлинг-окно.
// Кэш живёт PerfCacheTTL (час), force сбрасывает его.
func (s *Service) Analyze(ctx context.Context, force bool) (map[models.StrategyType]models.StrategyPerformance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force && s.cache != nil && s.now().Sub(s.cachedAt) < s.cfg.PerfCacheTTL {
		return s.cache, nil
	}

	cutoff := s.now().AddDate(0, 0, -s.cfg.PerfWindowDays)
	results := make(map[models.StrategyType]models.StrategyPerformance, len(models.AllStrategies))

	for _, strat := range models.AllStrategies {
		trades, err := s.trades.ClosedTrades(ctx, ledgersvc.TradeFilter{
			Since:    cutoff,
			Strategy: strat,
		})
		if err != nil {
			return nil, err
		}
		results[strat] = aggregate(strat, trades)
	}

	s.cache = results
	s.cachedAt = s.now()

	for _, strat := range models.AllStrategies {
		perf := results[strat]
		logger.Info("strategy %s: trades=%d wr=%.2f pf=%.2f mult=%.2f",
			strat, perf.TotalTrades, perf.WinRate, perf.ProfitFactor, perf.ConfidenceMultiplier)
	}
	return results, nil
}

func aggregate(strat models.StrategyType, trades []models.Trade) models.StrategyPerformance {
	perf := models.StrategyPerformance{
		Strategy:             strat,
		ConfidenceMultiplier: 1.0,
	}
	if len(trades) == 0 {
		return perf
	}

	perf.TotalTrades = len(trades)
	perf.BestTrade = trades[0].NetPnL
	perf.WorstTrade = trades[0].NetPnL

	var winSum, lossSum, maeSum, mfeSum, holdSum float64
	for _, t := range trades {
		perf.TotalPnL += t.NetPnL
		if t.NetPnL > 0 {
			perf.WinningTrades++
			winSum += t.NetPnL
		} else {
			perf.LosingTrades++
			lossSum += -t.NetPnL
		}
		if t.NetPnL > perf.BestTrade {
			perf.BestTrade = t.NetPnL
		}
		if t.NetPnL < perf.WorstTrade {
			perf.WorstTrade = t.NetPnL
		}
		maeSum += abs(t.MAE)
		mfeSum += abs(t.MFE)
		holdSum += float64(t.HoldingMinutes) / 60
	}

	perf.WinRate = float64(perf.WinningTrades) / float64(perf.TotalTrades)
	if perf.WinningTrades > 0 {
		perf.AvgProfit = winSum / float64(perf.WinningTrades)
	}
	if perf.LosingTrades > 0 {
		perf.AvgLoss = lossSum / float64(perf.LosingTrades)
	}
	if lossSum > 0 {
		perf.ProfitFactor = winSum / lossSum
	}
	perf.AvgMAE = maeSum / float64(perf.TotalTrades)
	perf.AvgMFE = mfeSum / float64(perf.TotalTrades)
	perf.AvgHoldingHrs = holdSum / float64(perf.TotalTrades)

	perf.ConfidenceMultiplier = confidenceMultiplier(perf.WinRate, perf.ProfitFactor, perf.TotalTrades)
	return perf
}

// confidenceMultiplier — фиксированные полосы корректировки, клэмп [0.5..1.5].
// Маленькая выборка => нейтрально.
func confidenceMultiplier(winRate, profitFactor float64, tradeCount int) float64 {
	if tradeCount < minSampleForMultiplier {
		return 1.0
	}

	m := 1.0

	switch {
	case winRate > 0.6:
		m += 0.3
	case winRate > 0.55:
		m += 0.15
	case winRate < 0.45:
		m -= 0.2
	case winRate < 0.5:
		m -= 0.1
	}

	switch {
	case profitFactor > 2.0:
		m += 0.2
	case profitFactor > 1.5:
		m += 0.1
	case profitFactor < 1.0:
		m -= 0.2
	case profitFactor < 1.2:
		m -= 0.1
	}

	if m < 0.5 {
		m = 0.5
	}
	if m > 1.5 {
		m = 1.5
	}
	return m
}

// Multiplier — множитель уверенности для стратегии (1.0 если данных нет).
func (s *Service) Multiplier(ctx context.Context, strat models.StrategyType) float64 {
	perfs, err := s.Analyze(ctx, false)
	if err != nil {
		logger.Error("analyze performance: %v", err)
		return 1.0
	}
	if perf, ok := perfs[strat]; ok {
		return perf.ConfidenceMultiplier
	}
	return 1.0
}

// ShouldTrade выключает стратегию со стабильно плохой статистикой.
// Пауза, не удаление: при улучшении статистики стратегия вернётся сама.
func (s *Service) ShouldTrade(ctx context.Context, strat models.StrategyType) bool {
	perfs, err := s.Analyze(ctx, false)
	if err != nil {
		logger.Error("analyze performance: %v", err)
		return true
	}
	perf, ok := perfs[strat]
	if !ok || perf.TotalTrades < 20 {
		return true
	}
	if perf.WinRate < 0.4 && perf.ProfitFactor < 1.0 {
		logger.Warn("strategy %s paused: wr=%.2f pf=%.2f", strat, perf.WinRate, perf.ProfitFactor)
		return false
	}
	return true
}

// BestStrategies — топ-N по метрике profit_factor*win_rate,
// стратегии с выборкой меньше 10 сделок в конец.
func (s *Service) BestStrategies(ctx context.Context, topN int) []models.StrategyType {
	perfs, err := s.Analyze(ctx, false)
	if err != nil {
		logger.Error("analyze performance: %v", err)
		return nil
	}

	score := func(p models.StrategyPerformance) float64 {
		if p.TotalTrades < minSampleForMultiplier {
			return 0
		}
		return p.ProfitFactor * p.WinRate
	}

	strats := append([]models.StrategyType(nil), models.AllStrategies...)
	sort.SliceStable(strats, func(i, j int) bool {
		return score(perfs[strats[i]]) > score(perfs[strats[j]])
	})

	if topN < len(strats) {
		strats = strats[:topN]
	}
	return strats
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
