package configcache

import "sync"

// Cache metrics hooks for the active-configuration cache.
// Callers can adapt CacheMetrics to Prometheus or other systems.

type CacheTier string

type CacheOp string

const (
	TierLocal  CacheTier = "local"
	TierShared CacheTier = "shared"
	TierStore  CacheTier = "store"
)

const (
	OpHit        CacheOp = "hit"
	OpMiss       CacheOp = "miss"
	OpWrite      CacheOp = "write"
	OpInvalidate CacheOp = "invalidate"
)

// CacheEvent is a compact event describing a cache metric occurrence.
// Ok is false when the tier call itself failed.
type CacheEvent struct {
	Tier CacheTier
	Op   CacheOp
	Ok   bool
}

// CacheMetrics is an optional hook; implementations may aggregate counters.
type CacheMetrics interface {
	RecordCacheEvent(e CacheEvent)
}

// NoopCacheMetrics is the default when no metrics are provided.
type NoopCacheMetrics struct{}

func (NoopCacheMetrics) RecordCacheEvent(_ CacheEvent) {}

// CounterMetrics counts events per tier, op and outcome.
type CounterMetrics struct {
	mu     sync.Mutex
	counts map[CacheEvent]uint64
}

// NewCounterMetrics returns an empty counter set.
func NewCounterMetrics() *CounterMetrics {
	return &CounterMetrics{counts: make(map[CacheEvent]uint64)}
}

func (m *CounterMetrics) RecordCacheEvent(e CacheEvent) {
	m.mu.Lock()
	m.counts[e]++
	m.mu.Unlock()
}

// Count returns how many times e was recorded.
func (m *CounterMetrics) Count(e CacheEvent) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[e]
}

// Snapshot renders the counters as "tier.op" (suffixed ".error" for failures) to count.
func (m *CounterMetrics) Snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.counts))
	for e, n := range m.counts {
		k := string(e.Tier) + "." + string(e.Op)
		if !e.Ok {
			k += ".error"
		}
		out[k] += n
	}
	return out
}
