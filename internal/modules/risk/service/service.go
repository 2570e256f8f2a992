package service

import (
	"context"
	"sync"

	"tradego/internal/models"
	"tradego/internal/modules/config"
	"tradego/pkg/logger"
)

// BarSource — дневные свечи для корреляций; закрывается слоем данных.
type BarSource interface {
	GetBars(ctx context.Context, symbol, interval string, count int) []models.Bar
}

// Manager — пер-трейдовый сайзинг и портфельные лимиты.
// Состояние портфеля передаётся аргументами; внутри живёт только
// эффективный капитал, который оркестратор обновляет раз в цикл.
type Manager struct {
	cfg  *config.Config
	data BarSource

	mu      sync.RWMutex
	capital float64
}

func NewManager(cfg *config.Config, data BarSource) *Manager {
	logger.Info("risk manager: max positions=%d, heat limit=%.1f%%",
		cfg.Risk.MaxOpenPositions, cfg.Risk.MaxPortfolioHeat*100)
	return &Manager{cfg: cfg, data: data, capital: cfg.Risk.TotalCapital}
}

// SetTotalCapital — фактический капитал: маржа брокера в реальном режиме,
// настройка или конфиг в остальных. Нулевые и отрицательные значения игнорируем.
func (m *Manager) SetTotalCapital(v float64) {
	if v <= 0 {
		return
	}
	m.mu.Lock()
	m.capital = v
	m.mu.Unlock()
}

func (m *Manager) TotalCapital() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.capital
}

// Sector — сектор символа из статической таблицы, дефолт "Other".
func (m *Manager) Sector(symbol string) string {
	if s, ok := m.cfg.SectorMap[symbol]; ok {
		return s
	}
	return "Other"
}

// AvailableCapital — свободный капитал в слайсе продукта с учётом
// маржи интрадея.
func (m *Manager) AvailableCapital(product models.Product, openTrades []models.Trade) float64 {
	var limit float64
	if product == models.ProductIntraday {
		limit = m.TotalCapital() * m.cfg.Risk.IntradayAllocation
	} else {
		limit = m.TotalCapital() * m.cfg.Risk.SwingAllocation
	}

	var used float64
	for _, t := range openTrades {
		if t.Product == product {
			used += t.CapitalUsed()
		}
	}

	available := limit - used
	if available < 0 {
		return 0
	}
	return available
}
