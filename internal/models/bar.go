package models

import "time"

// Bar — одна свеча OHLCV. После загрузки не мутируется.
type Bar struct {
	Symbol   string
	Interval string // "15m", "30m", "1d"
	Ts       time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// IndicatorSnapshot — индикаторы по окну свечей, считаются на лету и не персистятся.
type IndicatorSnapshot struct {
	SMA20 float64
	SMA50 float64
	EMA9  float64
	EMA21 float64
	RSI   float64 // RSI(14)
	ATR   float64 // ATR(14)
	VWAP  float64
	ADX   float64 // ADX(14)

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	BBUpper  float64 // Bollinger(20, 2)
	BBMiddle float64
	BBLower  float64

	VolumeSMA float64 // SMA(20) по объёму
	Close     float64 // последний close
}
