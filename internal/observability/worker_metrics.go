package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricUnitsTotal    = "air_toolkit.worker.units.total"
	metricUnitDuration  = "air_toolkit.worker.unit.duration.seconds"
	metricUnitsInFlight = "air_toolkit.worker.units.inflight"

	attrAnalyzer = "analyzer"
	attrOutcome  = "outcome"
)

// Outcome values recorded against the unit-outcome attribute.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"
)

// unitDurationBuckets covers a fast lint pass (tens of milliseconds)
// through a slow dependency scan well under the default 5-minute unit
// timeout.
var unitDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// WorkerMetrics holds the OTel instruments recording the Worker Pool's
// per-unit outcome and duration.
type WorkerMetrics struct {
	unitsTotal   metric.Int64Counter
	unitDuration metric.Float64Histogram
	inFlight     metric.Int64UpDownCounter
}

// NewWorkerMetrics creates the Worker Pool's instruments from mt.
func NewWorkerMetrics(mt metric.Meter) (*WorkerMetrics, error) {
	b := newMetricBuilder(mt)

	wm := &WorkerMetrics{
		unitsTotal:   b.counter(metricUnitsTotal, "Total analysis units dispatched, by analyzer and outcome", "{unit}"),
		unitDuration: b.histogram(metricUnitDuration, "Per-unit subprocess duration in seconds", "s", unitDurationBuckets...),
		inFlight:     b.upDownCounter(metricUnitsInFlight, "Units currently running in a worker subprocess", "{unit}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return wm, nil
}

// RecordUnit records one completed unit's analyzer name, outcome
// ("ok", "failed", or "timeout"), and subprocess duration. Safe to
// call on a nil receiver, so callers don't need to branch when metrics
// are unconfigured.
func (wm *WorkerMetrics) RecordUnit(ctx context.Context, analyzerName, outcome string, duration time.Duration) {
	if wm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrAnalyzer, analyzerName),
		attribute.String(attrOutcome, outcome),
	)

	wm.unitsTotal.Add(ctx, 1, attrs)
	wm.unitDuration.Record(ctx, duration.Seconds(), attrs)
}

// TrackInFlight increments the in-flight gauge for analyzerName and
// returns a function that decrements it when the unit finishes. Safe
// to call on a nil receiver; the returned func is then a no-op.
func (wm *WorkerMetrics) TrackInFlight(ctx context.Context, analyzerName string) func() {
	if wm == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrAnalyzer, analyzerName))
	wm.inFlight.Add(ctx, 1, attrs)

	return func() {
		wm.inFlight.Add(ctx, -1, attrs)
	}
}
