package shared

import (
	"sync"
	"time"
)

// Expiring holds a single value together with its expiry instant and
// refreshes it through one code path, so the staleness check is not
// duplicated everywhere a TTL-guarded value lives.
type Expiring[T any] struct {
	mu        sync.Mutex
	value     T
	expiresAt time.Time

	// Now is swappable in tests; zero value falls back to time.Now.
	Now func() time.Time
}

// GetOrRefresh returns the held value when it has not expired, otherwise
// calls refresh, stores the result with the returned lifetime and hands it
// back. A refresh error leaves the stored value untouched.
func (e *Expiring[T]) GetOrRefresh(refresh func() (T, time.Duration, error)) (T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	if !e.expiresAt.IsZero() && now().Before(e.expiresAt) {
		return e.value, nil
	}
	v, ttl, err := refresh()
	if err != nil {
		var zero T
		return zero, err
	}
	e.value = v
	e.expiresAt = now().Add(ttl)
	return v, nil
}

// Invalidate drops the held value regardless of remaining lifetime.
func (e *Expiring[T]) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	var zero T
	e.value = zero
	e.expiresAt = time.Time{}
}
