package service

import (
	"context"
	"sort"
	"time"

	"tradego/internal/models"
	"tradego/internal/modules/config"
	learnersvc "tradego/internal/modules/learner/service"
	mdsvc "tradego/internal/modules/marketdata/service"
	"tradego/pkg/logger"
)

const confidenceCap = 0.95

// Engine гоняет три стратегии по символам и применяет обученный
// множитель уверенности перед фильтрацией.
type Engine struct {
	cfg     *config.Config
	data    *mdsvc.Service
	learner *learnersvc.Service

	now func() time.Time
}

func NewEngine(cfg *config.Config, data *mdsvc.Service, learner *learnersvc.Service) *Engine {
	return &Engine{
		cfg:     cfg,
		data:    data,
		learner: learner,
		now:     time.Now,
	}
}

func computeSnapshot(bars []models.Bar) (models.IndicatorSnapshot, bool) {
	return mdsvc.ComputeIndicators(bars)
}

func macdHistTail(bars []models.Bar, tail int) []float64 {
	return mdsvc.MACDHistSeries(bars, tail)
}

// GenerateSignals: обновить перформанс, прогнать стратегии, применить
// множители, отфильтровать и отсортировать по убыванию уверенности.
func (e *Engine) GenerateSignals(ctx context.Context, symbols []string) []models.Signal {
	if _, err := e.learner.Analyze(ctx, false); err != nil {
		logger.Warn("could not refresh strategy performance: %v", err)
	}

	var out []models.Signal
	for _, symbol := range symbols {
		for _, candidate := range e.runStrategies(ctx, symbol) {
			mult := e.learner.Multiplier(ctx, candidate.Strategy)
			adjusted := candidate.Confidence * mult
			if adjusted > confidenceCap {
				adjusted = confidenceCap
			}
			if adjusted != candidate.Confidence {
				logger.Info("%s %s: confidence %.2f -> %.2f (x%.2f)",
					symbol, candidate.Strategy, candidate.Confidence, adjusted, mult)
			}
			candidate.Confidence = adjusted

			if candidate.Confidence < e.cfg.Signals.MinConfidence {
				continue
			}
			if !e.learner.ShouldTrade(ctx, candidate.Strategy) {
				logger.Info("skipping %s for %s: poor historical performance", candidate.Strategy, symbol)
				continue
			}
			out = append(out, candidate)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })

	logger.Info("generated %d signals from %d symbols", len(out), len(symbols))
	return out
}

func (e *Engine) runStrategies(ctx context.Context, symbol string) []models.Signal {
	var out []models.Signal
	if sig, ok := e.newsMomentum(ctx, symbol); ok {
		out = append(out, sig)
	}
	if sig, ok := e.breakout(ctx, symbol); ok {
		out = append(out, sig)
	}
	if sig, ok := e.meanReversion(ctx, symbol); ok {
		out = append(out, sig)
	}
	return out
}

// ValidateSignal — последний рубеж перед сайзингом: R:R, ширина стопа,
// порог уверенности. Границы включительно: R:R ровно 1.5 проходит.
func (e *Engine) ValidateSignal(sig models.Signal) bool {
	risk := sig.Entry - sig.StopLoss
	if risk < 0 {
		risk = -risk
	}
	reward := sig.Target - sig.Entry
	if reward < 0 {
		reward = -reward
	}
	if risk == 0 || sig.Entry <= 0 {
		return false
	}

	rr := reward / risk
	minRR := e.cfg.Signals.MinRRSwing
	if sig.Product == models.ProductIntraday {
		minRR = e.cfg.Signals.MinRRIntraday
	}
	if rr < minRR {
		logger.Warn("signal %s rejected: R:R %.2f < %.2f", sig.Symbol, rr, minRR)
		return false
	}

	slPct := risk / sig.Entry
	if slPct < e.cfg.Signals.MinStopPct {
		logger.Warn("signal %s rejected: stop too tight (%.2f%%)", sig.Symbol, slPct*100)
		return false
	}
	if slPct > e.cfg.Signals.MaxStopPct {
		logger.Warn("signal %s rejected: stop too wide (%.2f%%)", sig.Symbol, slPct*100)
		return false
	}

	return sig.Confidence >= e.cfg.Signals.MinConfidence
}
