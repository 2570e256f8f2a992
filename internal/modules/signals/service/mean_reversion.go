package service

import (
	"context"
	"math"
	"time"

	"tradego/internal/models"
)

// MeanReversionInput — перепроданность в боковике около поддержки.
type MeanReversionInput struct {
	Intraday       models.IndicatorSnapshot
	DailyADX       float64
	LastVolume     float64
	Support20      float64 // минимум low последних 20 интрадей-баров
	DailySupport20 float64
}

// EvalMeanReversion — откуп перепроданности к средней полосе Боллинджера.
// Только лонг: асимметрия целевой цены намеренная, short-варианта нет.
func EvalMeanReversion(symbol string, in MeanReversionInput, now time.Time) (models.Signal, bool) {
	price := in.Intraday.Close
	if price <= 0 {
		return models.Signal{}, false
	}

	oversold := in.Intraday.RSI < 30 || (in.Intraday.BBLower > 0 && price <= in.Intraday.BBLower*1.01)
	weakTrend := in.DailyADX < 20
	nearSupport := in.Support20 > 0 && math.Abs(price-in.Support20)/price < 0.02
	normalVolume := true
	if in.Intraday.VolumeSMA > 0 {
		ratio := in.LastVolume / in.Intraday.VolumeSMA
		normalVolume = ratio > 0.7 && ratio < 1.5
	}

	if !(oversold && weakTrend && nearSupport && normalVolume) {
		return models.Signal{}, false
	}

	confidence := 0.65
	if in.Intraday.RSI < 25 {
		confidence += 0.05
	}
	if price < in.Intraday.BBLower {
		confidence += 0.05
	}
	if in.DailySupport20 > 0 && math.Abs(price-in.DailySupport20)/price < 0.01 {
		confidence += 0.05
	}
	confidence = math.Min(confidence, 0.90)

	target := in.Intraday.BBMiddle
	if target <= price {
		target = price * 1.015
	}

	return models.Signal{
		Symbol:     symbol,
		Strategy:   models.StrategyMeanReversion,
		Direction:  models.SideBuy,
		Entry:      price,
		StopLoss:   in.Support20 * 0.99,
		Target:     target,
		Confidence: confidence,
		Product:    models.ProductIntraday,
		TechScore:  (50 - in.Intraday.RSI) / 50,
		CreatedAt:  now,
	}, true
}

func (e *Engine) meanReversion(ctx context.Context, symbol string) (models.Signal, bool) {
	intradayBars := e.data.GetBars(ctx, symbol, "15m", 100)
	dailyBars := e.data.GetBars(ctx, symbol, "1d", 50)
	if len(intradayBars) == 0 || len(dailyBars) == 0 {
		return models.Signal{}, false
	}

	intraday, ok := computeSnapshot(intradayBars)
	if !ok {
		return models.Signal{}, false
	}
	daily, _ := computeSnapshot(dailyBars)

	return EvalMeanReversion(symbol, MeanReversionInput{
		Intraday:       intraday,
		DailyADX:       daily.ADX,
		LastVolume:     lastVolume(intradayBars),
		Support20:      lowestLow(intradayBars, 20),
		DailySupport20: lowestLow(dailyBars, 20),
	}, e.now())
}
