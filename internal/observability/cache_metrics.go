package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

const (
	metricCacheHitsTotal   = "air_toolkit.cache.hits.total"
	metricCacheMissesTotal = "air_toolkit.cache.misses.total"
)

// CacheMetrics holds the OTel instruments recording the Cache's hit
// and miss counts.
type CacheMetrics struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
}

// NewCacheMetrics creates the Cache's instruments from mt.
func NewCacheMetrics(mt metric.Meter) (*CacheMetrics, error) {
	b := newMetricBuilder(mt)

	cm := &CacheMetrics{
		hits:   b.counter(metricCacheHitsTotal, "Cache lookups that found a valid entry", "{lookup}"),
		misses: b.counter(metricCacheMissesTotal, "Cache lookups that found no valid entry", "{lookup}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return cm, nil
}

// RecordHit records a cache hit. Safe to call on a nil receiver.
func (cm *CacheMetrics) RecordHit(ctx context.Context) {
	if cm == nil {
		return
	}

	cm.hits.Add(ctx, 1)
}

// RecordMiss records a cache miss. Safe to call on a nil receiver.
func (cm *CacheMetrics) RecordMiss(ctx context.Context) {
	if cm == nil {
		return
	}

	cm.misses.Add(ctx, 1)
}
