package service

import (
	"math"

	"tradego/internal/models"
)

const minBarsForIndicators = 50

// ComputeIndicators считает весь набор по окну свечей.
// Меньше 50 баров => пустой снапшот, стратегии трактуют это как "нет сигнала".
func ComputeIndicators(bars []models.Bar) (models.IndicatorSnapshot, bool) {
	if len(bars) < minBarsForIndicators {
		return models.IndicatorSnapshot{}, false
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	macd, signal, hist := macdLast(closes, 12, 26, 9)
	bbUpper, bbMiddle, bbLower := bollingerLast(closes, 20, 2)

	snap := models.IndicatorSnapshot{
		SMA20: smaLast(closes, 20),
		SMA50: smaLast(closes, 50),
		EMA9:  emaLast(closes, 9),
		EMA21: emaLast(closes, 21),

		RSI: rsiLast(closes, 14),

		MACD:       macd,
		MACDSignal: signal,
		MACDHist:   hist,

		ATR:  atrLast(bars, 14),
		VWAP: vwap(bars),

		BBUpper:  bbUpper,
		BBMiddle: bbMiddle,
		BBLower:  bbLower,

		ADX: adxLast(bars, 14),

		VolumeSMA: smaLast(volumes, 20),
		Close:     closes[len(closes)-1],
	}
	return snap, true
}

func smaLast(vals []float64, period int) float64 {
	if len(vals) < period {
		return 0
	}
	sum := 0.0
	for _, v := range vals[len(vals)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// emaSeries — экспоненциальное сглаживание, alpha = 2/(span+1).
func emaSeries(vals []float64, span int) []float64 {
	out := make([]float64, len(vals))
	if len(vals) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = vals[0]
	for i := 1; i < len(vals); i++ {
		out[i] = alpha*vals[i] + (1-alpha)*out[i-1]
	}
	return out
}

func emaLast(vals []float64, span int) float64 {
	s := emaSeries(vals, span)
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// rsiLast — RSI по простым скользящим средним прироста/падения.
func rsiLast(closes []float64, period int) float64 {
	if len(closes) <= period {
		return 0
	}
	gains := 0.0
	losses := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func macdLast(closes []float64, fast, slow, signal int) (float64, float64, float64) {
	emaFast := emaSeries(closes, fast)
	emaSlow := emaSeries(closes, slow)
	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = emaFast[i] - emaSlow[i]
	}
	signalLine := emaSeries(macdLine, signal)
	last := len(closes) - 1
	return macdLine[last], signalLine[last], macdLine[last] - signalLine[last]
}

// MACDHistSeries — хвост гистограммы MACD, нужен брейкаут-стратегии
// для поиска смены знака в последних барах.
func MACDHistSeries(bars []models.Bar, tail int) []float64 {
	if len(bars) < minBarsForIndicators {
		return nil
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	emaFast := emaSeries(closes, 12)
	emaSlow := emaSeries(closes, 26)
	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = emaFast[i] - emaSlow[i]
	}
	signalLine := emaSeries(macdLine, 9)
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = macdLine[i] - signalLine[i]
	}
	if tail > len(hist) {
		tail = len(hist)
	}
	return hist[len(hist)-tail:]
}

func trueRange(cur, prev models.Bar) float64 {
	tr := cur.High - cur.Low
	if v := math.Abs(cur.High - prev.Close); v > tr {
		tr = v
	}
	if v := math.Abs(cur.Low - prev.Close); v > tr {
		tr = v
	}
	return tr
}

func atrLast(bars []models.Bar, period int) float64 {
	if len(bars) <= period {
		return 0
	}
	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += trueRange(bars[i], bars[i-1])
	}
	return sum / float64(period)
}

// vwap по всему переданному окну (для интрадея окно = текущая сессия).
func vwap(bars []models.Bar) float64 {
	var pv, vol float64
	for _, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3
		pv += typical * b.Volume
		vol += b.Volume
	}
	if vol == 0 {
		return 0
	}
	return pv / vol
}

func bollingerLast(closes []float64, period int, stdDev float64) (float64, float64, float64) {
	if len(closes) < period {
		return 0, 0, 0
	}
	window := closes[len(closes)-period:]
	mean := 0.0
	for _, v := range window {
		mean += v
	}
	mean /= float64(period)

	variance := 0.0
	for _, v := range window {
		variance += (v - mean) * (v - mean)
	}
	// выборочная дисперсия
	variance /= float64(period - 1)
	sd := math.Sqrt(variance)

	return mean + stdDev*sd, mean, mean - stdDev*sd
}

// adxLast — упрощённый ADX: +DM/-DM сглаживаются простым средним поверх ATR.
func adxLast(bars []models.Bar, period int) float64 {
	if len(bars) < 2*period+1 {
		return 0
	}

	n := len(bars)
	dx := make([]float64, 0, period)

	for end := n - period; end <= n; end++ {
		if end < 2*period {
			continue
		}
		win := bars[:end]

		var plusDM, minusDM float64
		for i := len(win) - period; i < len(win); i++ {
			up := win[i].High - win[i-1].High
			down := win[i-1].Low - win[i].Low
			if up > 0 {
				plusDM += up
			}
			if down > 0 {
				minusDM += down
			}
		}

		var trSum float64
		for i := len(win) - period; i < len(win); i++ {
			trSum += trueRange(win[i], win[i-1])
		}
		if trSum == 0 {
			continue
		}

		plusDI := 100 * plusDM / trSum
		minusDI := 100 * minusDM / trSum
		if plusDI+minusDI == 0 {
			continue
		}
		dx = append(dx, 100*math.Abs(plusDI-minusDI)/(plusDI+minusDI))
	}

	if len(dx) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range dx {
		sum += v
	}
	return sum / float64(len(dx))
}
