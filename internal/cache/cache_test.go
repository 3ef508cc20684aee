package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/LiveData-Inc/air-toolkit/internal/model"
	"github.com/LiveData-Inc/air-toolkit/internal/observability"
)

func TestLookupMissThenStoreThenHit(t *testing.T) {
	c := New(t.TempDir(), "v1.0.0")
	fileBytes := []byte("print('hello')\n")

	_, err := c.Lookup("/repo/a", fileBytes, "security")
	require.ErrorIs(t, err, ErrMiss)

	entry := model.CacheEntry{
		AnalyzerName: "security",
		Findings:     []model.Finding{{Category: "security", Severity: model.SeverityHigh}},
	}
	require.NoError(t, c.Store("/repo/a", fileBytes, "security", entry))

	got, err := c.Lookup("/repo/a", fileBytes, "security")
	require.NoError(t, err)
	assert.Equal(t, "security", got.AnalyzerName)
	assert.Len(t, got.Findings, 1)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.EqualValues(t, 1, stats.TotalEntries)
}

func TestLookupMissOnVersionChange(t *testing.T) {
	dir := t.TempDir()
	fileBytes := []byte("content")

	c1 := New(dir, "v1.0.0")
	require.NoError(t, c1.Store("/repo/a", fileBytes, "quality", model.CacheEntry{AnalyzerName: "quality"}))

	c2 := New(dir, "v2.0.0")
	_, err := c2.Lookup("/repo/a", fileBytes, "quality")
	require.ErrorIs(t, err, ErrMiss)
}

func TestStoreCompressesLargeEntries(t *testing.T) {
	c := New(t.TempDir(), "v1.0.0")
	fileBytes := []byte("big file")

	bigDescription := strings.Repeat("x", compressThreshold*2)
	entry := model.CacheEntry{
		AnalyzerName: "quality",
		Findings:     []model.Finding{{Description: bigDescription}},
	}
	require.NoError(t, c.Store("/repo/a", fileBytes, "quality", entry))

	got, err := c.Lookup("/repo/a", fileBytes, "quality")
	require.NoError(t, err)
	assert.Equal(t, bigDescription, got.Findings[0].Description)
}

func TestLookupRecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	cm, err := observability.NewCacheMetrics(mp.Meter("test"))
	require.NoError(t, err)

	c := New(t.TempDir(), "v1.0.0")
	c.Metrics = cm

	fileBytes := []byte("content")

	_, lookupErr := c.Lookup("/repo/a", fileBytes, "quality")
	require.ErrorIs(t, lookupErr, ErrMiss)

	require.NoError(t, c.Store("/repo/a", fileBytes, "quality", model.CacheEntry{AnalyzerName: "quality"}))

	_, lookupErr = c.Lookup("/repo/a", fileBytes, "quality")
	require.NoError(t, lookupErr)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var sawHits, sawMisses bool

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "air_toolkit.cache.hits.total":
				sawHits = true
			case "air_toolkit.cache.misses.total":
				sawMisses = true
			}
		}
	}

	assert.True(t, sawHits, "expected a hits metric after the second lookup")
	assert.True(t, sawMisses, "expected a misses metric after the first lookup")
}

func TestClearRemovesPartition(t *testing.T) {
	c := New(t.TempDir(), "v1.0.0")
	fileBytes := []byte("content")

	require.NoError(t, c.Store("/repo/a", fileBytes, "quality", model.CacheEntry{AnalyzerName: "quality"}))
	require.NoError(t, c.Clear("/repo/a"))

	_, err := c.Lookup("/repo/a", fileBytes, "quality")
	require.ErrorIs(t, err, ErrMiss)
}
