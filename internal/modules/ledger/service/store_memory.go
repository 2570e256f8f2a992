package service

import (
	"context"
	"sort"
	"sync"

	"tradego/internal/models"
)

// MemoryStore — хранилище в памяти для бумажного режима и тестов.
type MemoryStore struct {
	mu         sync.RWMutex
	trades     map[string]models.Trade
	portfolios map[string]models.Portfolio // ключ yyyy-mm-dd
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trades:     make(map[string]models.Trade),
		portfolios: make(map[string]models.Portfolio),
	}
}

func (s *MemoryStore) SaveTrade(_ context.Context, t models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades[t.TradeID] = t
	return nil
}

func (s *MemoryStore) GetTrade(_ context.Context, tradeID string) (models.Trade, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trades[tradeID]
	return t, ok, nil
}

func (s *MemoryStore) OpenTrades(_ context.Context) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Trade
	for _, t := range s.trades {
		if t.Status == models.TradeOpen {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryTime.After(out[j].EntryTime) })
	return out, nil
}

func (s *MemoryStore) ClosedTrades(_ context.Context, f TradeFilter) ([]models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Trade
	for _, t := range s.trades {
		if t.Status != models.TradeClosed {
			continue
		}
		if f.matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryTime.After(out[j].EntryTime) })
	return out, nil
}

func (s *MemoryStore) SavePortfolio(_ context.Context, p models.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolios[p.Date.Format("2006-01-02")] = p
	return nil
}
