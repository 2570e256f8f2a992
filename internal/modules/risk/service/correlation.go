package service

import (
	"context"
	"fmt"
	"math"

	"tradego/internal/models"
	"tradego/pkg/logger"
)

const minAlignedReturns = 20

// CorrelationVerdict — результат проверки корреляции.
// Verified=false означает fail-open: данных не хватило, сделку пропускаем,
// но в отчёте это отличимо от честного "прошла".
type CorrelationVerdict struct {
	Allow    bool
	Verified bool
	Reason   string
}

// CheckCorrelation сравнивает дневные доходности кандидата с каждой
// открытой позицией; |r| выше лимита — отказ.
func (m *Manager) CheckCorrelation(ctx context.Context, symbol string, openTrades []models.Trade) CorrelationVerdict {
	if len(openTrades) == 0 {
		return CorrelationVerdict{Allow: true, Verified: true, Reason: "no open positions"}
	}

	newReturns := m.dailyReturns(ctx, symbol)
	if len(newReturns) < minAlignedReturns {
		logger.Warn("correlation unverified for %s: %d return points", symbol, len(newReturns))
		return CorrelationVerdict{Allow: true, Verified: false, Reason: "insufficient data for correlation check"}
	}

	verified := true
	for _, trade := range openTrades {
		tradeReturns := m.dailyReturns(ctx, trade.Symbol)
		if len(tradeReturns) < minAlignedReturns {
			verified = false
			continue
		}

		n := len(newReturns)
		if len(tradeReturns) < n {
			n = len(tradeReturns)
		}
		corr, ok := pearson(newReturns[len(newReturns)-n:], tradeReturns[len(tradeReturns)-n:])
		if !ok {
			verified = false
			continue
		}

		if math.Abs(corr) > m.cfg.Risk.MaxCorrelation {
			return CorrelationVerdict{
				Allow:    false,
				Verified: true,
				Reason:   fmt.Sprintf("high correlation (%.2f) with %s", corr, trade.Symbol),
			}
		}
	}

	if !verified {
		return CorrelationVerdict{Allow: true, Verified: false, Reason: "correlation partially unverified"}
	}
	return CorrelationVerdict{Allow: true, Verified: true, Reason: "correlation checks passed"}
}

func (m *Manager) dailyReturns(ctx context.Context, symbol string) []float64 {
	bars := m.data.GetBars(ctx, symbol, "1d", 30)
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close == 0 {
			continue
		}
		out = append(out, bars[i].Close/bars[i-1].Close-1)
	}
	return out
}

// pearson — коэффициент корреляции; ok=false при нулевой дисперсии.
func pearson(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) == 0 {
		return 0, false
	}
	n := float64(len(x))

	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}
