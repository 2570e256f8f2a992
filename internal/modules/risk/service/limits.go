package service

import (
	"fmt"

	"tradego/internal/models"
)

// CheckPortfolioLimits — портфельные лимиты в фиксированном порядке,
// первая сработавшая проверка решает. Порядок менять нельзя: на нём
// завязана диагностика причин отказа.
func (m *Manager) CheckPortfolioLimits(sig models.Signal, size models.PositionSize,
	openTrades []models.Trade, portfolio models.Portfolio) (bool, string) {

	limits := m.cfg.Risk
	capital := m.TotalCapital()

	// 1. количество открытых позиций
	if len(openTrades) >= limits.MaxOpenPositions {
		return false, fmt.Sprintf("max open positions reached (%d)", limits.MaxOpenPositions)
	}

	// 2. суммарный риск по стопам
	currentHeat := 0.0
	for _, t := range openTrades {
		currentHeat += t.RiskAmount
	}
	heatPercent := (currentHeat + size.RiskAmount) / capital
	if heatPercent > limits.MaxPortfolioHeat {
		return false, fmt.Sprintf("portfolio heat %.1f%% > %.1f%%",
			heatPercent*100, limits.MaxPortfolioHeat*100)
	}

	// 3. задействованный капитал
	deployedPercent := portfolio.DeployedCapital / capital
	if deployedPercent > limits.MaxCapitalDeployed {
		return false, fmt.Sprintf("capital deployed %.1f%% > %.1f%%",
			deployedPercent*100, limits.MaxCapitalDeployed*100)
	}

	// 4. концентрация по сектору
	sector := m.Sector(sig.Symbol)
	sameSector := 0
	for _, t := range openTrades {
		if m.Sector(t.Symbol) == sector {
			sameSector++
		}
	}
	if sameSector >= limits.MaxPositionsPerSector {
		return false, fmt.Sprintf("max positions in %s sector reached (%d)",
			sector, limits.MaxPositionsPerSector)
	}

	// 5. слайс капитала продукта
	var used float64
	for _, t := range openTrades {
		if t.Product == sig.Product {
			used += t.CapitalUsed()
		}
	}
	var slice float64
	if sig.Product == models.ProductIntraday {
		slice = capital * limits.IntradayAllocation
	} else {
		slice = capital * limits.SwingAllocation
	}
	if used+size.CapitalRequired > slice {
		if sig.Product == models.ProductIntraday {
			return false, "intraday allocation limit reached"
		}
		return false, "swing allocation limit reached"
	}

	// 6. дневной circuit breaker
	dailyLossPercent := portfolio.TotalPnL / capital
	if dailyLossPercent < -limits.MaxDailyLossPercent {
		return false, fmt.Sprintf("daily circuit breaker triggered (%.2f%% loss)",
			dailyLossPercent*100)
	}

	return true, "all checks passed"
}
