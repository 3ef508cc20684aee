package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Providers holds the initialized metrics provider. Handler is nil
// when metrics are disabled: there is nothing to scrape.
type Providers struct {
	// Meter creates instruments; a no-op meter when Config.Enabled is false.
	Meter metric.Meter

	// Handler serves a Prometheus /metrics scrape endpoint, or nil when
	// Config.Enabled is false.
	Handler http.Handler

	// Shutdown flushes pending metrics and releases the meter
	// provider's resources. Must be called before process exit.
	Shutdown func(ctx context.Context) error
}

func noopShutdown(context.Context) error { return nil }

// Init builds a Providers from cfg. Unlike a long-running server, a
// CLI invocation has no natural scrape window, so the returned
// Handler is meant to be served briefly (e.g. for a "metrics" command
// or a one-shot dump) rather than run continuously.
func Init(cfg Config) (Providers, error) {
	if !cfg.Enabled {
		return Providers{
			Meter:    noopmetric.NewMeterProvider().Meter(meterName),
			Shutdown: noopShutdown,
		}, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return Providers{}, fmt.Errorf("build otel resource: %w", err)
	}

	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return Providers{}, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	return Providers{
		Meter:    mp.Meter(meterName),
		Handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Shutdown: mp.Shutdown,
	}, nil
}
