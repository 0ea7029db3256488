// Package telemetry wraps OpenTelemetry SDK initialization, providing
// the gateway with a centralized TracerProvider and MeterProvider
// configuration. When telemetry is disabled, noop implementations are
// used and no external service is contacted.
package telemetry
