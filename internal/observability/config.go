// Package observability wires the Worker Pool's per-unit duration and
// outcome, and the Cache's hit/miss counters, into OpenTelemetry metric
// instruments, exported through a Prometheus registry. When disabled,
// Init returns no-op instruments with zero export overhead, so the
// rest of the codebase never needs to branch on whether metrics are on.
package observability

const meterName = "air-toolkit"

// Config controls whether metrics are collected and exported.
type Config struct {
	// Enabled turns on the OTel SDK meter provider and Prometheus
	// exporter. False (the default for one-shot CLI invocations) uses
	// no-op instruments.
	Enabled bool

	// ServiceName tags every exported metric's resource attributes.
	ServiceName string
}

// DefaultConfig returns a Config with metrics disabled, matching a
// plain CLI invocation with no scrape target configured.
func DefaultConfig() Config {
	return Config{ServiceName: "air-toolkit"}
}
