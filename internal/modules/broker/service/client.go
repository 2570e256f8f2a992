package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"tradego/internal/modules/config"
)

// Client — REST-клиент брокера (маржа, ордера, котировки, свечи).
type Client struct {
	cfg   *config.Config
	base  string
	token string
	http  *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:   cfg,
		base:  cfg.Broker.BaseURL,
		token: cfg.Broker.AccessToken,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// Funds — доступная маржа на счёте.
type Funds struct {
	AvailableMargin float64 `json:"available_margin"`
}

func (c *Client) GetFunds(ctx context.Context) (Funds, error) {
	var payload struct {
		Status string `json:"status"`
		Data   Funds  `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v2/user/funds", nil, &payload); err != nil {
		return Funds{}, err
	}
	if payload.Status != "success" {
		return Funds{}, fmt.Errorf("broker status: %s", payload.Status)
	}
	return payload.Data, nil
}

// GetLtp — последняя цена по символу.
func (c *Client) GetLtp(ctx context.Context, symbol string) (float64, error) {
	var payload struct {
		Status string `json:"status"`
		Data   struct {
			Ltp float64 `json:"ltp"`
		} `json:"data"`
	}
	path := "/v2/market/ltp?symbol=" + url.QueryEscape(symbol)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return 0, err
	}
	if payload.Status != "success" || payload.Data.Ltp <= 0 {
		return 0, fmt.Errorf("no ltp for %s", symbol)
	}
	return payload.Data.Ltp, nil
}

// BrokerPosition — нетто-позиция на стороне брокера.
type BrokerPosition struct {
	Symbol   string `json:"symbol"`
	Quantity int    `json:"quantity"`
}

// GetPositions — открытые позиции брокера, для сверки с леджером.
func (c *Client) GetPositions(ctx context.Context) ([]BrokerPosition, error) {
	var payload struct {
		Status string           `json:"status"`
		Data   []BrokerPosition `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v2/portfolio/positions", nil, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("broker status: %s", payload.Status)
	}
	return payload.Data, nil
}

// MarketSession — открыт ли рынок и его фаза.
type MarketSession struct {
	Open  bool   `json:"open"`
	Phase string `json:"phase"`
}

func (c *Client) MarketSessionStatus(ctx context.Context) (MarketSession, error) {
	var payload struct {
		Status string        `json:"status"`
		Data   MarketSession `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v2/market/status", nil, &payload); err != nil {
		return MarketSession{}, err
	}
	return payload.Data, nil
}
