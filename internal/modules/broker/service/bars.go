package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"tradego/internal/models"
)

// GetBars — исторические свечи. Брокер отдаёт их в произвольном порядке,
// наружу всегда уходят отсортированные по времени.
func (c *Client) GetBars(ctx context.Context, symbol, interval string, count int) ([]models.Bar, error) {
	var payload struct {
		Status string `json:"status"`
		Data   struct {
			Candles [][]float64 `json:"candles"` // [ts, o, h, l, c, v]
		} `json:"data"`
	}

	path := fmt.Sprintf("/v2/historical/%s?interval=%s&count=%d",
		url.PathEscape(symbol), url.QueryEscape(interval), count)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("historical rejected: %s", payload.Status)
	}

	bars := make([]models.Bar, 0, len(payload.Data.Candles))
	for _, c := range payload.Data.Candles {
		if len(c) < 6 {
			continue
		}
		bars = append(bars, models.Bar{
			Symbol:   symbol,
			Interval: interval,
			Ts:       time.Unix(int64(c[0]), 0),
			Open:     c[1],
			High:     c[2],
			Low:      c[3],
			Close:    c[4],
			Volume:   c[5],
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Ts.Before(bars[j].Ts) })
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}
