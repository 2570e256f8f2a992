package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"tradego/internal/models"
	"tradego/internal/modules/config"
)

// HTTPNewsClient — REST-клиент новостного фида.
type HTTPNewsClient struct {
	base string
	http *http.Client
}

func NewHTTPNewsClient(cfg *config.Config) *HTTPNewsClient {
	return &HTTPNewsClient{
		base: cfg.News.BaseURL,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPNewsClient) RecentNews(ctx context.Context, query string, lookbackDays, maxItems int) ([]models.NewsItem, error) {
	u := fmt.Sprintf("%s/v1/news?q=%s&days=%d&limit=%d",
		c.base, url.QueryEscape(query), lookbackDays, maxItems)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var payload struct {
		Items []struct {
			Title     string `json:"title"`
			Timestamp int64  `json:"timestamp"` // unix seconds
			URL       string `json:"url"`
			Source    string `json:"source"`
		} `json:"items"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	items := make([]models.NewsItem, 0, len(payload.Items))
	for _, it := range payload.Items {
		items = append(items, models.NewsItem{
			Title:  it.Title,
			Ts:     time.Unix(it.Timestamp, 0),
			URL:    it.URL,
			Source: it.Source,
		})
	}
	return items, nil
}
