package service

import (
	"math"

	"tradego/internal/models"
	"tradego/pkg/logger"
)

// SizePosition — размер позиции от риска и доступного капитала.
// Процент риска линейно растёт с уверенностью: 0.65 => минимум, 1.0 => максимум.
func (m *Manager) SizePosition(sig models.Signal, availableCapital float64) (models.PositionSize, bool) {
	limits := m.cfg.Risk
	capital := m.TotalCapital()

	riskPercent := limits.MinRiskPerTrade +
		(sig.Confidence-0.65)*(limits.MaxRiskPerTrade-limits.MinRiskPerTrade)/0.35
	riskPercent = math.Min(riskPercent, limits.MaxRiskPerTrade)

	riskAmount := capital * riskPercent

	riskPerShare := math.Abs(sig.Entry - sig.StopLoss)
	if riskPerShare == 0 {
		logger.Warn("invalid stop-loss for %s", sig.Symbol)
		return models.PositionSize{}, false
	}

	quantity := int(riskAmount / riskPerShare)
	if quantity <= 0 {
		logger.Warn("calculated quantity is 0 for %s", sig.Symbol)
		return models.PositionSize{}, false
	}

	positionValue := float64(quantity) * sig.Entry
	margin, capitalReq := capitalFor(sig.Product, positionValue)

	// не влезаем в свободный капитал — ужимаем количество под плечо
	if capitalReq > availableCapital {
		if sig.Product == models.ProductIntraday {
			quantity = int(availableCapital * models.IntradayLeverage / sig.Entry)
		} else {
			quantity = int(availableCapital / sig.Entry)
		}
		if quantity <= 0 {
			logger.Warn("insufficient capital for %s", sig.Symbol)
			return models.PositionSize{}, false
		}
		positionValue = float64(quantity) * sig.Entry
		margin, capitalReq = capitalFor(sig.Product, positionValue)
		riskAmount = float64(quantity) * riskPerShare
	}

	reward := math.Abs(sig.Target-sig.Entry) * float64(quantity)
	rr := 0.0
	if riskAmount > 0 {
		rr = reward / riskAmount
	}

	minRR := m.cfg.Signals.MinRRSwing
	if sig.Product == models.ProductIntraday {
		minRR = m.cfg.Signals.MinRRIntraday
	}
	if rr < minRR {
		logger.Warn("R:R %.2f < %.2f for %s", rr, minRR, sig.Symbol)
		return models.PositionSize{}, false
	}

	// потолок на одну позицию: доля от общего капитала
	maxPositionValue := capital * limits.MaxPositionValue
	if positionValue > maxPositionValue {
		scale := maxPositionValue / positionValue
		quantity = int(float64(quantity) * scale)
		if quantity <= 0 {
			return models.PositionSize{}, false
		}
		positionValue = float64(quantity) * sig.Entry
		margin, capitalReq = capitalFor(sig.Product, positionValue)
		riskAmount = float64(quantity) * riskPerShare
	}

	return models.PositionSize{
		Quantity:        quantity,
		RiskAmount:      riskAmount,
		RRRatio:         rr,
		MarginRequired:  margin,
		CapitalRequired: capitalReq,
	}, true
}

func capitalFor(product models.Product, positionValue float64) (margin, required float64) {
	if product == models.ProductIntraday {
		margin = positionValue / models.IntradayLeverage
		return margin, margin
	}
	return positionValue, positionValue
}
