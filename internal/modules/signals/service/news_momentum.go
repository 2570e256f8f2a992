package service

import (
	"context"
	"math"
	"time"

	"tradego/internal/models"
)

// NewsMomentumInput — всё, что нужно стратегии, без походов в сеть.
type NewsMomentumInput struct {
	Intraday   models.IndicatorSnapshot
	Daily      models.IndicatorSnapshot
	LastVolume float64
	NewsScore  float64
}

// EvalNewsMomentum — интрадей-моментум на новостях.
// Вход только при конъюнкции всех условий:
// сентимент > 0.6, цена выше VWAP, объём 1.5x среднего, RSI < 70, цена выше SMA20.
func EvalNewsMomentum(symbol string, in NewsMomentumInput, now time.Time) (models.Signal, bool) {
	price := in.Intraday.Close
	if price <= 0 {
		return models.Signal{}, false
	}

	conditions := in.NewsScore > 0.6 &&
		price > in.Intraday.VWAP && in.Intraday.VWAP > 0 &&
		in.Intraday.VolumeSMA > 0 && in.LastVolume > in.Intraday.VolumeSMA*1.5 &&
		in.Intraday.RSI < 70 &&
		price > in.Intraday.SMA20 && in.Intraday.SMA20 > 0
	if !conditions {
		return models.Signal{}, false
	}

	confidence := 0.65 + (in.NewsScore-0.6)*0.5
	if in.LastVolume > in.Intraday.VolumeSMA*2 {
		confidence += 0.05
	}
	if in.Daily.RSI > 50 && in.Daily.Close > in.Daily.SMA20 {
		confidence += 0.05
	}
	confidence = math.Min(confidence, 0.95)

	// стоп: -0.75% либо VWAP, что ближе к цене
	stop := math.Max(price*(1-0.0075), in.Intraday.VWAP)

	return models.Signal{
		Symbol:     symbol,
		Strategy:   models.StrategyNewsMomentum,
		Direction:  models.SideBuy,
		Entry:      price,
		StopLoss:   stop,
		Target:     price * 1.015,
		Confidence: confidence,
		Product:    models.ProductIntraday,
		NewsScore:  in.NewsScore,
		TechScore:  in.Intraday.RSI / 100,
		CreatedAt:  now,
	}, true
}

func (e *Engine) newsMomentum(ctx context.Context, symbol string) (models.Signal, bool) {
	intradayBars := e.data.GetBars(ctx, symbol, "15m", 50)
	dailyBars := e.data.GetBars(ctx, symbol, "1d", 50)
	if len(intradayBars) == 0 || len(dailyBars) == 0 {
		return models.Signal{}, false
	}

	intraday, ok := computeSnapshot(intradayBars)
	if !ok {
		return models.Signal{}, false
	}
	daily, _ := computeSnapshot(dailyBars)

	news := e.data.GetNews(ctx, symbol, 4)

	return EvalNewsMomentum(symbol, NewsMomentumInput{
		Intraday:   intraday,
		Daily:      daily,
		LastVolume: lastVolume(intradayBars),
		NewsScore:  e.data.ScoreSentiment(news),
	}, e.now())
}
