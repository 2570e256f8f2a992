package service

import (
	"context"
	"math"
	"time"

	"tradego/internal/models"
)

// BreakoutInput — дневная картина для свинг-брейкаута.
type BreakoutInput struct {
	Daily        models.IndicatorSnapshot
	Price        float64 // текущая цена с младшего таймфрейма
	High20Prior  float64 // 20-дневный максимум без последнего бара
	SwingLow10   float64
	LastVolume   float64   // дневной объём
	MACDHistTail []float64 // хвост гистограммы, последний элемент — текущий бар
}

// EvalBreakout — пробой 20-дневного максимума на объёме в тренде.
func EvalBreakout(symbol string, in BreakoutInput, now time.Time) (models.Signal, bool) {
	if in.Price <= 0 {
		return models.Signal{}, false
	}

	conditions := in.Price > in.High20Prior && in.High20Prior > 0 &&
		in.Daily.VolumeSMA > 0 && in.LastVolume > in.Daily.VolumeSMA*2 &&
		in.Daily.ADX > 25 &&
		macdFlippedPositive(in.MACDHistTail) &&
		in.Price > in.Daily.SMA50 && in.Daily.SMA50 > 0 &&
		in.Daily.SMA20 > in.Daily.SMA50
	if !conditions {
		return models.Signal{}, false
	}

	confidence := 0.70
	if in.LastVolume > in.Daily.VolumeSMA*3 {
		confidence += 0.05
	}
	if in.Daily.ADX > 35 {
		confidence += 0.05
	}
	if (in.Price-in.High20Prior)/in.High20Prior > 0.02 {
		confidence += 0.05
	}
	confidence = math.Min(confidence, 0.95)

	stop := math.Max(in.Price*(1-0.012), in.SwingLow10)

	return models.Signal{
		Symbol:     symbol,
		Strategy:   models.StrategyBreakout,
		Direction:  models.SideBuy,
		Entry:      in.Price,
		StopLoss:   stop,
		Target:     in.Price * 1.025,
		Confidence: confidence,
		Product:    models.ProductDelivery,
		TechScore:  math.Min(in.Daily.ADX/50, 1),
		CreatedAt:  now,
	}, true
}

// macdFlippedPositive: текущая гистограмма положительная, а в одном из
// трёх предыдущих баров была отрицательной.
func macdFlippedPositive(tail []float64) bool {
	if len(tail) < 2 {
		return false
	}
	cur := tail[len(tail)-1]
	if cur <= 0 {
		return false
	}
	prev := tail[:len(tail)-1]
	if len(prev) > 3 {
		prev = prev[len(prev)-3:]
	}
	for _, h := range prev {
		if h < 0 {
			return true
		}
	}
	return false
}

func (e *Engine) breakout(ctx context.Context, symbol string) (models.Signal, bool) {
	dailyBars := e.data.GetBars(ctx, symbol, "1d", 100)
	intradayBars := e.data.GetBars(ctx, symbol, "30m", 50)
	if len(dailyBars) == 0 || len(intradayBars) == 0 {
		return models.Signal{}, false
	}

	daily, ok := computeSnapshot(dailyBars)
	if !ok {
		return models.Signal{}, false
	}
	intraday, ok := computeSnapshot(intradayBars)
	if !ok {
		return models.Signal{}, false
	}

	return EvalBreakout(symbol, BreakoutInput{
		Daily:        daily,
		Price:        intraday.Close,
		High20Prior:  highestHighPrior(dailyBars, 20),
		SwingLow10:   lowestLow(dailyBars, 10),
		LastVolume:   lastVolume(dailyBars),
		MACDHistTail: macdHistTail(dailyBars, 4),
	}, e.now())
}
