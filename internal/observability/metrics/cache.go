package metrics

import (
	"github.com/neighborcast/neighborcast-api/internal/observability/statsd"
	"github.com/neighborcast/neighborcast-api/internal/service/configcache"
)

// CacheRecorder reports active-configuration cache events as config_cache.event counts.
type CacheRecorder struct {
	sink statsd.Sink
}

var _ configcache.CacheMetrics = (*CacheRecorder)(nil)

// NewCacheRecorder returns a recorder writing to sink. A nil sink drops events.
func NewCacheRecorder(sink statsd.Sink) *CacheRecorder {
	return &CacheRecorder{sink: sink}
}

// RecordCacheEvent implements configcache.CacheMetrics.
func (r *CacheRecorder) RecordCacheEvent(e configcache.CacheEvent) {
	if r == nil || r.sink == nil {
		return
	}
	result := ResultSuccess
	if !e.Ok {
		result = ResultError
	}
	r.sink.Count("config_cache.event", 1, map[string]string{
		"tier":   string(e.Tier),
		"op":     string(e.Op),
		"result": result,
	})
}

// Tee fans cache events out to several recorders.
type Tee []configcache.CacheMetrics

// RecordCacheEvent implements configcache.CacheMetrics.
func (t Tee) RecordCacheEvent(e configcache.CacheEvent) {
	for _, m := range t {
		if m != nil {
			m.RecordCacheEvent(e)
		}
	}
}
