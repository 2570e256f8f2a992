package service

import (
	"sync"
	"time"
)

// ttlCache — кэш с инвалидацией по времени. Блокировок на чтение данных
// дальше по пайплайну не нужно: значения кладутся целиком и не мутируются.
type ttlCache[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]cacheEntry[T]
}

type cacheEntry[T any] struct {
	val T
	at  time.Time
}

func newTTLCache[T any](ttl time.Duration, now func() time.Time) *ttlCache[T] {
	return &ttlCache[T]{
		ttl:   ttl,
		now:   now,
		items: make(map[string]cacheEntry[T]),
	}
}

func (c *ttlCache[T]) get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok || c.now().Sub(e.at) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.val, true
}

func (c *ttlCache[T]) put(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheEntry[T]{val: v, at: c.now()}
}
