// Package memcache is the default in-process snapshot cache: values are
// overwritten in place when stale and lost on restart, which is the
// deliberate simplicity tradeoff of this service.
package memcache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"flexreviews/internal/adapters/observability"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func New() *Cache {
	return &Cache{entries: map[string]entry{}, now: time.Now}
}

// Values round-trip through JSON like the redis adapter so both backends
// are interchangeable behind the same port.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.value, dst)
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = entry{value: b, expiresAt: c.now().Add(time.Duration(ttlSec) * time.Second)}
	c.mu.Unlock()
	observability.ObserveCache("memory", "set")
	return nil
}

func (c *Cache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	observability.ObserveCache("memory", "del")
	return nil
}
