package models

import "time"

type StrategyType string

const (
	StrategyNewsMomentum  StrategyType = "news_momentum"
	StrategyBreakout      StrategyType = "technical_breakout"
	StrategyMeanReversion StrategyType = "mean_reversion"
)

// AllStrategies — порядок фиксированный, по нему идёт анализ перформанса.
var AllStrategies = []StrategyType{StrategyNewsMomentum, StrategyBreakout, StrategyMeanReversion}

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Product — "I" интрадей (маржа 5x, закрытие в тот же день), "D" delivery/swing.
type Product string

const (
	ProductIntraday Product = "I"
	ProductDelivery Product = "D"
)

// IntradayLeverage — маржинальное плечо для интрадей-продукта.
const IntradayLeverage = 5.0

// Signal — результат стратегии. Создаётся один раз, дальше не мутируется
// (корректировка confidence лернером происходит до публикации).
type Signal struct {
	Symbol     string
	Strategy   StrategyType
	Direction  Side
	Entry      float64
	StopLoss   float64
	Target     float64
	Confidence float64 // [0..1]
	Product    Product
	NewsScore  float64
	TechScore  float64
	CreatedAt  time.Time
}

// PositionSize — расчёт размера позиции, транзитный результат.
type PositionSize struct {
	Quantity        int
	RiskAmount      float64 // риск в рупиях по стопу
	RRRatio         float64
	MarginRequired  float64
	CapitalRequired float64
}
