package configcache

import (
	"container/list"
	"sync"
	"time"
)

// LocalLRU is a small in-memory LRU cache with per-entry TTL.
// It is the per-process tier of the active-configuration cache.
// Concurrency: methods are safe for concurrent use.
type LocalLRU[V any] struct {
	mu     sync.Mutex
	cap    int
	ll     *list.List               // front = most-recently used
	items  map[string]*list.Element // key -> element
	now    func() time.Time         // injectable clock for tests
}

type lruEntry[V any] struct {
	key    string
	value  V
	expiry time.Time // zero means no expiry
}

// LocalLRUConfig groups constructor options.
type LocalLRUConfig struct {
	Capacity int
	Now      func() time.Time
}

// NewLocalLRU creates a new LocalLRU with the given config.
func NewLocalLRU[V any](cfg LocalLRUConfig) *LocalLRU[V] {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 16
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &LocalLRU[V]{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[string]*list.Element, capacity),
		now:   nowFn,
	}
}

// Get returns the value for key if present and not expired.
func (c *LocalLRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, found := c.items[key]
	if !found {
		return zero, false
	}
	ent := el.Value.(*lruEntry[V])
	if c.isExpired(ent) {
		c.removeElement(el)
		return zero, false
	}
	c.ll.MoveToFront(el)
	return ent.value, true
}

// Set inserts or updates a value with TTL.
// ttl <= 0 means no expiration.
func (c *LocalLRU[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}

	if el, found := c.items[key]; found {
		ent := el.Value.(*lruEntry[V])
		ent.value = value
		ent.expiry = exp
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&lruEntry[V]{key: key, value: value, expiry: exp})
	c.items[key] = el
	c.evictIfNeeded()
}

// Delete removes a key from the cache.
func (c *LocalLRU[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
		return true
	}
	return false
}

// Helpers (caller must hold c.mu).
func (c *LocalLRU[V]) isExpired(e *lruEntry[V]) bool {
	if e.expiry.IsZero() {
		return false
	}
	return !c.now().Before(e.expiry)
}

func (c *LocalLRU[V]) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*lruEntry[V]).key)
}

func (c *LocalLRU[V]) evictIfNeeded() {
	for c.ll.Len() > c.cap {
		el := c.ll.Back()
		if el == nil {
			return
		}
		c.removeElement(el)
	}
}
