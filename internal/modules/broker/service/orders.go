package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"tradego/internal/models"
)

// OrderResult — статус размещения и идентификаторы ног.
type OrderResult struct {
	Status        string `json:"status"`
	EntryOrderID  string `json:"entry_order_id"`
	TargetOrderID string `json:"target_order_id"`
	SLOrderID     string `json:"sl_order_id"`
}

type placeOrderRequest struct {
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	Quantity  int     `json:"quantity"`
	Product   string  `json:"product"` // I / D
	OrderType string  `json:"order_type"`
	Price     float64 `json:"price,omitempty"`
	StopLoss  float64 `json:"stop_loss"`
	Target    float64 `json:"target,omitempty"`
}

// PlaceOrder выставляет вход со стопом и целью. live=false — бумажный
// режим: брокер не трогаем, возвращаем синтетические айдишники.
func (c *Client) PlaceOrder(ctx context.Context, sig models.Signal, qty int, live bool) (OrderResult, error) {
	if !live {
		ts := time.Now().Format("150405")
		return OrderResult{
			Status:        "success",
			EntryOrderID:  "PAPER_E_" + sig.Symbol + "_" + ts,
			TargetOrderID: "PAPER_T_" + sig.Symbol + "_" + ts,
			SLOrderID:     "PAPER_S_" + sig.Symbol + "_" + ts,
		}, nil
	}

	body, err := sonic.Marshal(placeOrderRequest{
		Symbol:    sig.Symbol,
		Side:      string(sig.Direction),
		Quantity:  qty,
		Product:   string(sig.Product),
		OrderType: "MARKET",
		StopLoss:  sig.StopLoss,
		Target:    sig.Target,
	})
	if err != nil {
		return OrderResult{}, fmt.Errorf("marshal order: %w", err)
	}

	var payload struct {
		Status string      `json:"status"`
		Data   OrderResult `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v2/order/place", body, &payload); err != nil {
		return OrderResult{}, err
	}
	if payload.Status != "success" {
		return OrderResult{}, fmt.Errorf("order rejected: %s", payload.Status)
	}
	payload.Data.Status = payload.Status
	return payload.Data, nil
}

// SquareOff закрывает позицию по рынку. В бумажном режиме no-op.
func (c *Client) SquareOff(ctx context.Context, symbol string, live bool) error {
	if !live {
		return nil
	}

	var payload struct {
		Status string `json:"status"`
	}
	path := "/v2/order/squareoff?symbol=" + url.QueryEscape(symbol)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &payload); err != nil {
		return err
	}
	if payload.Status != "success" {
		return fmt.Errorf("squareoff rejected: %s", payload.Status)
	}
	return nil
}
