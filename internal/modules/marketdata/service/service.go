package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"tradego/internal/models"
	"tradego/internal/modules/config"
	"tradego/pkg/logger"
)

// BarProvider отдаёт свечи; реализуется брокерским клиентом.
type BarProvider interface {
	GetBars(ctx context.Context, symbol, interval string, count int) ([]models.Bar, error)
}

// NewsProvider отдаёт заголовки по запросу.
type NewsProvider interface {
	RecentNews(ctx context.Context, query string, lookbackDays, maxItems int) ([]models.NewsItem, error)
}

type Service struct {
	cfg  *config.Config
	bars BarProvider
	news NewsProvider

	barCache  *ttlCache[[]models.Bar]
	newsCache *ttlCache[[]models.NewsItem]

	now func() time.Time
}

func NewService(cfg *config.Config, bars BarProvider, news NewsProvider) *Service {
	now := time.Now
	return &Service{
		cfg:       cfg,
		bars:      bars,
		news:      news,
		barCache:  newTTLCache[[]models.Bar](cfg.BarCacheTTL, now),
		newsCache: newTTLCache[[]models.NewsItem](cfg.NewsCacheTTL, now),
		now:       now,
	}
}

// GetBars — свечи с кэшем и проверкой качества. Любое нарушение => nil,
// частично валидных данных наружу не отдаём.
func (s *Service) GetBars(ctx context.Context, symbol, interval string, count int) []models.Bar {
	key := fmt.Sprintf("%s_%s_%d", symbol, interval, count)
	if cached, ok := s.barCache.get(key); ok {
		return cached
	}

	bars, err := s.bars.GetBars(ctx, symbol, interval, count)
	if err != nil {
		logger.Error("fetch bars %s %s: %v", symbol, interval, err)
		return nil
	}
	if !validateBars(bars) {
		logger.Warn("invalid OHLCV data for %s %s", symbol, interval)
		return nil
	}

	s.barCache.put(key, bars)
	return bars
}

// Indicators — GetBars + ComputeIndicators одним вызовом.
func (s *Service) Indicators(ctx context.Context, symbol, interval string, count int) (models.IndicatorSnapshot, bool) {
	return ComputeIndicators(s.GetBars(ctx, symbol, interval, count))
}

func validateBars(bars []models.Bar) bool {
	if len(bars) == 0 {
		return false
	}

	hasVolume := false
	var prevTs time.Time
	for i, b := range bars {
		for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		if b.Volume > 0 {
			hasVolume = true
		}
		// 1. high покрывает open/close, low снизу
		if b.High < b.Low || b.High < b.Open || b.High < b.Close ||
			b.Low > b.Open || b.Low > b.Close {
			return false
		}
		// 2. строгий порядок по времени
		if i > 0 && !b.Ts.After(prevTs) {
			return false
		}
		prevTs = b.Ts
	}
	return hasVolume
}

// GetNews — заголовки по символу за lookbackHours, кэш 30 минут.
func (s *Service) GetNews(ctx context.Context, symbol string, lookbackHours int) []models.NewsItem {
	key := fmt.Sprintf("%s_%d", symbol, lookbackHours)
	if cached, ok := s.newsCache.get(key); ok {
		return cached
	}

	raw, err := s.news.RecentNews(ctx, symbol, 2, s.cfg.News.MaxItems)
	if err != nil {
		logger.Error("fetch news %s: %v", symbol, err)
		return nil
	}

	items := make([]models.NewsItem, 0, len(raw))
	for _, item := range raw {
		hoursAgo := s.now().Sub(item.Ts).Hours()
		if hoursAgo > float64(lookbackHours) {
			continue
		}
		item.Symbol = symbol
		items = append(items, item)
	}

	s.newsCache.put(key, items)
	return items
}

// ScoreSentiment — взвешенный по времени keyword-скоринг, [-1..+1].
// Полураспад 4 часа: вчерашняя новость почти не весит.
func (s *Service) ScoreSentiment(items []models.NewsItem) float64 {
	if len(items) == 0 {
		return 0
	}

	var totalScore, totalWeight float64
	for _, item := range items {
		hoursAgo := s.now().Sub(item.Ts).Hours()
		if hoursAgo < 0 {
			hoursAgo = 0
		}
		decay := math.Pow(0.5, hoursAgo/4)

		headline := strings.ToLower(item.Title)
		itemScore := 0.0
		for keyword, weight := range s.cfg.PositiveKeywords {
			if strings.Contains(headline, keyword) {
				itemScore += weight
			}
		}
		for keyword, weight := range s.cfg.NegativeKeywords {
			if strings.Contains(headline, keyword) {
				itemScore += weight // вес уже отрицательный
			}
		}

		totalScore += itemScore * decay
		totalWeight += decay
	}

	if totalWeight == 0 {
		return 0
	}
	score := totalScore / totalWeight
	return math.Max(-1, math.Min(1, score))
}
