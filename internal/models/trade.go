package models

import "time"

type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

type ExitReason string

const (
	ExitTarget   ExitReason = "TARGET"
	ExitStopLoss ExitReason = "STOP_LOSS"
	ExitManual   ExitReason = "MANUAL"
	ExitEOD      ExitReason = "EOD_SQUAREOFF"
	ExitTrailing ExitReason = "TRAILING_STOP"
	ExitShutdown ExitReason = "SHUTDOWN_SQUAREOFF"
)

// Trade — персистентная единица учёта, ключ trade_id.
// Entry-поля выставляются один раз при создании. MAE/MFE двигаются строго
// монотонно (mae вниз, mfe вверх) пока статус OPEN. Exit-поля — ровно один раз
// при закрытии, переход OPEN→CLOSED односторонний.
type Trade struct {
	TradeID  string
	Symbol   string
	Strategy StrategyType

	// Вход
	EntryTime time.Time
	Entry     float64
	Quantity  int
	Product   Product
	Direction Side

	// Риск-план (стоп может подтягиваться трейлингом снаружи)
	StopLoss   float64
	Target     float64
	RiskAmount float64

	// Выход
	ExitTime   *time.Time
	ExitPrice  float64
	ExitReason ExitReason

	// P&L
	GrossPnL   float64
	Brokerage  float64
	NetPnL     float64
	PnLPercent float64

	// Экскурсии: худший/лучший нереализованный P&L за время жизни позиции
	MAE            float64
	MFE            float64
	HoldingMinutes int

	// Атрибуция сигнала
	NewsScore  float64
	TechScore  float64
	Confidence float64

	// Брокерские order id для сверки
	EntryOrderID  string
	TargetOrderID string
	SLOrderID     string

	Status    TradeStatus
	UpdatedAt time.Time
}

// UnrealizedPnL — нереализованный P&L по текущей цене с учётом направления.
func (t *Trade) UnrealizedPnL(price float64) float64 {
	if t.Direction == SideBuy {
		return (price - t.Entry) * float64(t.Quantity)
	}
	return (t.Entry - price) * float64(t.Quantity)
}

// CapitalUsed — задействованный капитал с поправкой на маржу интрадея.
func (t *Trade) CapitalUsed() float64 {
	v := t.Entry * float64(t.Quantity)
	if t.Product == ProductIntraday {
		return v / IntradayLeverage
	}
	return v
}
