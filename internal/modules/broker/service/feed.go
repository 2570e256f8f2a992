package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"tradego/internal/modules/config"
)

// Feed — один WebSocket на весь список символов, держит последнюю цену
// по каждому. Монитор позиций читает Latest вместо REST-запроса на тик.
type Feed struct {
	cfg    *config.Config
	dialer *websocket.Dialer

	mu     sync.RWMutex
	latest map[string]float64
	subs   []string
}

func NewFeed(cfg *config.Config) *Feed {
	return &Feed{
		cfg:    cfg,
		dialer: &websocket.Dialer{},
		latest: make(map[string]float64),
	}
}

// Subscribe задаёт список символов; применится на следующем реконнекте.
func (f *Feed) Subscribe(symbols []string) {
	f.mu.Lock()
	f.subs = append([]string(nil), symbols...)
	f.mu.Unlock()
}

// Latest — последняя цена из фида, ok=false если цены ещё не было.
func (f *Feed) Latest(symbol string) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	px, ok := f.latest[symbol]
	return px, ok
}

// Start крутит connect/subscribe/read до отмены контекста.
func (f *Feed) Start(ctx context.Context) {
	url := f.cfg.Broker.FeedURL
	if url == "" {
		log.Printf("[FEED] feed url not configured, ltp via REST only")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		f.mu.RLock()
		symbols := append([]string(nil), f.subs...)
		f.mu.RUnlock()
		if len(symbols) == 0 {
			time.Sleep(time.Second)
			continue
		}

		log.Printf("[FEED] connect, %d symbols", len(symbols))
		conn, _, err := f.dialer.Dial(url, nil)
		if err != nil {
			log.Printf("[FEED] dial error: %v", err)
			time.Sleep(time.Second)
			continue
		}

		sub := map[string]any{
			"op":      "subscribe",
			"symbols": symbols,
		}
		if err := conn.WriteJSON(sub); err != nil {
			log.Printf("[FEED] subscribe error: %v", err)
			_ = conn.Close()
			continue
		}

		// keepalive, иначе фид рвёт соединение по таймауту
		stopPing := make(chan struct{})
		go func() {
			t := time.NewTicker(20 * time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-stopPing:
					return
				case <-t.C:
					_ = conn.WriteJSON(map[string]string{"op": "ping"})
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Printf("[FEED] read error: %v", err)
				_ = conn.Close()
				break
			}

			var frame struct {
				Symbol string  `json:"symbol"`
				Ltp    float64 `json:"ltp"`
			}
			if err := sonic.Unmarshal(msg, &frame); err != nil {
				continue
			}
			if frame.Symbol == "" || frame.Ltp <= 0 {
				continue
			}

			f.mu.Lock()
			f.latest[frame.Symbol] = frame.Ltp
			f.mu.Unlock()
		}
		close(stopPing)
	}
}
