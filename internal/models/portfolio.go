package models

import "time"

// Portfolio — дневной снапшот, пересчитывается из сделок и кэшируется по дате.
// Не самостоятельный источник истины.
type Portfolio struct {
	Date time.Time // усечена до дня

	StartingCapital  float64
	AvailableCapital float64
	DeployedCapital  float64

	RealizedPnL   float64
	UnrealizedPnL float64
	TotalPnL      float64

	IntradayPnL    float64
	IntradayTrades int
	IntradayWins   int
	IntradayLosses int

	SwingPnL    float64
	SwingTrades int
	SwingWins   int
	SwingLosses int

	PortfolioHeat float64 // доля капитала под риском по стопам
	WinRate       float64 // проценты
	ProfitFactor  float64
}

// StrategyPerformance — скользящий агрегат по закрытым сделкам стратегии.
type StrategyPerformance struct {
	Strategy      StrategyType
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // [0..1]
	AvgProfit     float64
	AvgLoss       float64 // абсолютное значение
	ProfitFactor  float64
	TotalPnL      float64
	AvgHoldingHrs float64
	BestTrade     float64
	WorstTrade    float64
	AvgMAE        float64
	AvgMFE        float64

	// Множитель уверенности [0.5..1.5], 1.0 — нейтрально
	ConfidenceMultiplier float64
}

// NewsItem — заголовок новости, эфемерный, живёт только в кэше.
type NewsItem struct {
	Title  string
	Ts     time.Time
	URL    string
	Source string
	Symbol string // опциональная привязка
}
