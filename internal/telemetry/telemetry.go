// Package telemetry wires audiodoc's OTel logging and metrics.
//
// Activation is env-gated: when AUDIODOC_OTEL_METRICS_URL is unset, Init is
// a no-op and every Record* call hits the default no-op providers. This
// keeps the tool dependency-free for end users while letting fleet
// deployments point it at an OTLP collector.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const (
	// EnvMetricsURL names the env var holding the OTLP HTTP metrics endpoint.
	EnvMetricsURL = "AUDIODOC_OTEL_METRICS_URL"
	// EnvLogsURL names the env var holding the OTLP HTTP logs endpoint.
	EnvLogsURL = "AUDIODOC_OTEL_LOGS_URL"
)

// Shutdown flushes and stops the telemetry providers set up by Init.
type Shutdown func(ctx context.Context) error

// noopShutdown is returned when telemetry is inactive.
func noopShutdown(context.Context) error { return nil }

// Init configures the global OTel meter and logger providers from the
// environment. Returns a Shutdown that must be called before process exit
// so the final export flushes. When EnvMetricsURL is unset, telemetry stays
// on the no-op providers and the returned Shutdown does nothing.
func Init(ctx context.Context, version string) (Shutdown, error) {
	metricsURL := os.Getenv(EnvMetricsURL)
	if metricsURL == "" {
		return noopShutdown, nil
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", "audiodoc"),
		attribute.String("service.version", version),
	)

	metricExp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(metricsURL))
	if err != nil {
		return noopShutdown, fmt.Errorf("creating metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp,
			sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(mp)

	var lp *sdklog.LoggerProvider
	if logsURL := os.Getenv(EnvLogsURL); logsURL != "" {
		logExp, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(logsURL))
		if err != nil {
			// Metrics are already wired; keep them and report the partial failure.
			return func(ctx context.Context) error { return mp.Shutdown(ctx) },
				fmt.Errorf("creating log exporter: %w", err)
		}
		lp = sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		)
		global.SetLoggerProvider(lp)
	}

	return func(ctx context.Context) error {
		var firstErr error
		if lp != nil {
			firstErr = lp.Shutdown(ctx)
		}
		if err := mp.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		return firstErr
	}, nil
}
