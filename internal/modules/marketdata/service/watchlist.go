package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"tradego/pkg/logger"
)

// Watchlist — ядро из конфига плюс символы из свежих заголовков,
// после фильтра ликвидности, отранжированные по релевантности, топ-N.
func (s *Service) Watchlist(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var candidates []string

	for _, sym := range s.cfg.Watchlist.Core {
		if _, ok := seen[sym]; !ok {
			seen[sym] = struct{}{}
			candidates = append(candidates, sym)
		}
	}
	for _, sym := range s.discoverFromNews(ctx) {
		if _, ok := seen[sym]; !ok {
			seen[sym] = struct{}{}
			candidates = append(candidates, sym)
		}
	}

	liquid := candidates[:0]
	for _, sym := range candidates {
		if s.isLiquid(ctx, sym) {
			liquid = append(liquid, sym)
		}
	}

	ranked := s.rankByRelevance(ctx, liquid)
	if len(ranked) > s.cfg.Watchlist.TopN {
		ranked = ranked[:s.cfg.Watchlist.TopN]
	}
	logger.Info("watchlist: %d symbols after liquidity+ranking", len(ranked))
	return ranked
}

// discoverFromNews матчит заголовки общего рыночного фида против
// справочника компаний. Фид один на все символы, кэшируем как новости.
func (s *Service) discoverFromNews(ctx context.Context) []string {
	const key = "discover_market_feed"
	items, ok := s.newsCache.get(key)
	if !ok {
		var err error
		items, err = s.news.RecentNews(ctx, "NSE stock market", 1, s.cfg.News.MaxItems)
		if err != nil {
			logger.Error("discover news: %v", err)
			return nil
		}
		s.newsCache.put(key, items)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, item := range items {
		headline := strings.ToLower(item.Title)
		for name, sym := range s.cfg.KnownCompanies {
			if strings.Contains(headline, name) {
				if _, ok := seen[sym]; !ok {
					seen[sym] = struct{}{}
					out = append(out, sym)
				}
			}
		}
	}
	return out
}

// isLiquid: хотя бы 20 дневных баров, средний объём от 100к акций
// и ненулевая дисперсия цены (отсев зависших бумаг).
func (s *Service) isLiquid(ctx context.Context, symbol string) bool {
	bars := s.GetBars(ctx, symbol, "1d", 30)
	if len(bars) < 20 {
		return false
	}

	var volSum float64
	for _, b := range bars {
		volSum += b.Volume
	}
	if volSum/float64(len(bars)) < s.cfg.Watchlist.MinAvgVolume {
		return false
	}

	mean := 0.0
	for _, b := range bars {
		mean += b.Close
	}
	mean /= float64(len(bars))
	variance := 0.0
	for _, b := range bars {
		variance += (b.Close - mean) * (b.Close - mean)
	}
	return variance > 0
}

// rankByRelevance: новости 50%, всплеск объёма 30%, модуль изменения цены 20%.
// Каждая компонента ограничена 0.5, ошибки по символу дают ему нулевой скор.
func (s *Service) rankByRelevance(ctx context.Context, symbols []string) []string {
	type scored struct {
		sym   string
		score float64
	}
	out := make([]scored, 0, len(symbols))

	for _, sym := range symbols {
		score := 0.0

		newsCount := len(s.GetNews(ctx, sym, 2))
		score += math.Min(float64(newsCount)*0.1, 0.5) * 0.5

		bars := s.GetBars(ctx, sym, "1d", 2)
		if len(bars) >= 2 && bars[len(bars)-2].Volume > 0 {
			prev := bars[len(bars)-2]
			last := bars[len(bars)-1]

			volScore := math.Min(last.Volume/prev.Volume-1, 0.5)
			if volScore > 0 {
				score += volScore * 0.3
			}

			if prev.Close > 0 {
				change := math.Abs(last.Close-prev.Close) / prev.Close
				score += math.Min(change*10, 0.5) * 0.2
			}
		}

		out = append(out, scored{sym: sym, score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })

	ranked := make([]string, len(out))
	for i, sc := range out {
		ranked[i] = sc.sym
	}
	return ranked
}
