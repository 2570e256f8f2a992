package service

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradego/internal/models"
	"tradego/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var testNow = time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)

func momentumInput() NewsMomentumInput {
	return NewsMomentumInput{
		Intraday: models.IndicatorSnapshot{
			Close:     100,
			VWAP:      99.5,
			SMA20:     98,
			RSI:       60,
			VolumeSMA: 1000,
		},
		Daily: models.IndicatorSnapshot{
			Close: 100,
			SMA20: 101, // дневной бонус не срабатывает
			RSI:   45,
		},
		LastVolume: 1600,
		NewsScore:  0.8,
	}
}

func TestEvalNewsMomentum(t *testing.T) {
	sig, ok := EvalNewsMomentum("TCS", momentumInput(), testNow)
	require.True(t, ok)

	assert.Equal(t, models.StrategyNewsMomentum, sig.Strategy)
	assert.Equal(t, models.SideBuy, sig.Direction)
	assert.Equal(t, models.ProductIntraday, sig.Product)
	// base 0.65 + (0.8-0.6)*0.5, бонусы не сработали
	assert.InDelta(t, 0.75, sig.Confidence, 1e-9)
	// VWAP ближе к цене, чем -0.75%
	assert.InDelta(t, 99.5, sig.StopLoss, 1e-9)
	assert.InDelta(t, 101.5, sig.Target, 1e-9)
	assert.Equal(t, testNow, sig.CreatedAt)
}

func TestEvalNewsMomentumBonuses(t *testing.T) {
	in := momentumInput()
	in.LastVolume = 2500 // > 2x среднего
	in.Daily.RSI = 55
	in.Daily.Close = 102
	in.Daily.SMA20 = 101

	sig, ok := EvalNewsMomentum("TCS", in, testNow)
	require.True(t, ok)
	assert.InDelta(t, 0.85, sig.Confidence, 1e-9)
}

func TestEvalNewsMomentumRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*NewsMomentumInput)
	}{
		{"sentiment at threshold", func(in *NewsMomentumInput) { in.NewsScore = 0.6 }},
		{"price below vwap", func(in *NewsMomentumInput) { in.Intraday.VWAP = 101 }},
		{"volume not elevated", func(in *NewsMomentumInput) { in.LastVolume = 1400 }},
		{"rsi overbought", func(in *NewsMomentumInput) { in.Intraday.RSI = 70 }},
		{"below sma20", func(in *NewsMomentumInput) { in.Intraday.SMA20 = 101 }},
		{"no price", func(in *NewsMomentumInput) { in.Intraday.Close = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := momentumInput()
			tc.mutate(&in)
			_, ok := EvalNewsMomentum("TCS", in, testNow)
			assert.False(t, ok)
		})
	}
}

func breakoutInput() BreakoutInput {
	return BreakoutInput{
		Daily: models.IndicatorSnapshot{
			SMA20:     98,
			SMA50:     95,
			ADX:       30,
			VolumeSMA: 1000,
		},
		Price:        100,
		High20Prior:  99,
		SwingLow10:   96,
		LastVolume:   2500,
		MACDHistTail: []float64{-0.4, -0.1, 0.3},
	}
}

func TestEvalBreakout(t *testing.T) {
	sig, ok := EvalBreakout("RELIANCE", breakoutInput(), testNow)
	require.True(t, ok)

	assert.Equal(t, models.StrategyBreakout, sig.Strategy)
	assert.Equal(t, models.ProductDelivery, sig.Product)
	assert.InDelta(t, 0.70, sig.Confidence, 1e-9)
	// -1.2% от цены выше свингового минимума
	assert.InDelta(t, 98.8, sig.StopLoss, 1e-9)
	assert.InDelta(t, 102.5, sig.Target, 1e-9)
	assert.InDelta(t, 0.6, sig.TechScore, 1e-9) // ADX/50
}

func TestEvalBreakoutBonuses(t *testing.T) {
	in := breakoutInput()
	in.LastVolume = 3500 // > 3x
	in.Daily.ADX = 40    // > 35
	in.High20Prior = 97  // пробой > 2%

	sig, ok := EvalBreakout("RELIANCE", in, testNow)
	require.True(t, ok)
	assert.InDelta(t, 0.85, sig.Confidence, 1e-9)
}

func TestEvalBreakoutRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*BreakoutInput)
	}{
		{"no breakout", func(in *BreakoutInput) { in.High20Prior = 101 }},
		{"weak volume", func(in *BreakoutInput) { in.LastVolume = 1500 }},
		{"weak trend", func(in *BreakoutInput) { in.Daily.ADX = 20 }},
		{"macd still negative", func(in *BreakoutInput) { in.MACDHistTail = []float64{-0.4, -0.2, -0.1} }},
		{"macd never flipped", func(in *BreakoutInput) { in.MACDHistTail = []float64{0.1, 0.2, 0.3} }},
		{"below sma50", func(in *BreakoutInput) { in.Daily.SMA50 = 101 }},
		{"sma20 below sma50", func(in *BreakoutInput) { in.Daily.SMA20 = 94 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := breakoutInput()
			tc.mutate(&in)
			_, ok := EvalBreakout("RELIANCE", in, testNow)
			assert.False(t, ok)
		})
	}
}

func TestMACDFlippedPositive(t *testing.T) {
	assert.True(t, macdFlippedPositive([]float64{-0.2, 0.1}))
	assert.True(t, macdFlippedPositive([]float64{0.5, -0.2, 0.3, 0.1}))
	assert.False(t, macdFlippedPositive([]float64{0.1, 0.2, 0.3}), "минусов не было")
	assert.False(t, macdFlippedPositive([]float64{-0.2, -0.1}), "текущий не в плюсе")
	assert.False(t, macdFlippedPositive([]float64{0.1}), "короткий хвост")
	// минус старше трёх баров назад не считается
	assert.False(t, macdFlippedPositive([]float64{-0.5, 0.1, 0.2, 0.3, 0.4}))
}

func reversionInput() MeanReversionInput {
	return MeanReversionInput{
		Intraday: models.IndicatorSnapshot{
			Close:     100,
			RSI:       28,
			BBUpper:   106,
			BBMiddle:  103,
			BBLower:   99,
			VolumeSMA: 1000,
		},
		DailyADX:       15,
		LastVolume:     1000,
		Support20:      99.5,
		DailySupport20: 90,
	}
}

func TestEvalMeanReversion(t *testing.T) {
	sig, ok := EvalMeanReversion("HDFCBANK", reversionInput(), testNow)
	require.True(t, ok)

	assert.Equal(t, models.StrategyMeanReversion, sig.Strategy)
	assert.Equal(t, models.ProductIntraday, sig.Product)
	assert.InDelta(t, 0.65, sig.Confidence, 1e-9)
	assert.InDelta(t, 99.5*0.99, sig.StopLoss, 1e-9)
	assert.InDelta(t, 103, sig.Target, 1e-9) // средняя полоса
}

func TestEvalMeanReversionTargetFallback(t *testing.T) {
	in := reversionInput()
	in.Intraday.BBMiddle = 99 // ниже цены, цель не может быть под входом

	sig, ok := EvalMeanReversion("HDFCBANK", in, testNow)
	require.True(t, ok)
	assert.InDelta(t, 101.5, sig.Target, 1e-9)
}

func TestEvalMeanReversionBonusesCapped(t *testing.T) {
	in := reversionInput()
	in.Intraday.RSI = 20      // +0.05
	in.Intraday.BBLower = 101 // цена ниже полосы, +0.05
	in.DailySupport20 = 100.5 // близко к дневной поддержке, +0.05

	sig, ok := EvalMeanReversion("HDFCBANK", in, testNow)
	require.True(t, ok)
	assert.InDelta(t, 0.80, sig.Confidence, 1e-9)
}

func TestEvalMeanReversionRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*MeanReversionInput)
	}{
		{"not oversold", func(in *MeanReversionInput) { in.Intraday.RSI = 50; in.Intraday.BBLower = 90 }},
		{"trending market", func(in *MeanReversionInput) { in.DailyADX = 25 }},
		{"far from support", func(in *MeanReversionInput) { in.Support20 = 90 }},
		{"panic volume", func(in *MeanReversionInput) { in.LastVolume = 2000 }},
		{"dried up volume", func(in *MeanReversionInput) { in.LastVolume = 500 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := reversionInput()
			tc.mutate(&in)
			_, ok := EvalMeanReversion("HDFCBANK", in, testNow)
			assert.False(t, ok)
		})
	}
}
