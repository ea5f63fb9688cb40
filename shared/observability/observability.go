package observability

import (
	"context"
	"errors"
	"fmt"
	"io"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Options selects which signals are installed as the global providers.
type Options struct {
	ServiceName string
	Version     string

	// Tracing exports spans as JSON lines to TraceWriter.
	Tracing     bool
	TraceWriter io.Writer

	// Registerer receives the otel metric collectors. Nil disables otel
	// metrics.
	Registerer promclient.Registerer
}

// Shutdown flushes and stops the installed providers.
type Shutdown func(ctx context.Context) error

func newResource(opts Options) *resource.Resource {
	// Schemaless so the default resource's schema URL never conflicts.
	return resource.NewSchemaless(
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(opts.Version),
	)
}

// Setup installs the tracer and meter providers described by opts.
func Setup(opts Options) (Shutdown, error) {
	var shutdowns []Shutdown
	res := newResource(opts)

	if opts.Tracing {
		tp, err := SetupTracing(opts.TraceWriter, res)
		if err != nil {
			return nil, err
		}
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	if opts.Registerer != nil {
		mp, err := SetupPrometheusMetrics(opts.Registerer, res)
		if err != nil {
			return nil, err
		}
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	return func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}, nil
}

// SetupTracing initializes OpenTelemetry tracing with the stdout exporter
func SetupTracing(w io.Writer, res *resource.Resource) (*trace.TracerProvider, error) {
	exporterOpts := []stdouttrace.Option{}
	if w != nil {
		exporterOpts = append(exporterOpts, stdouttrace.WithWriter(w))
	}
	exp, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stdouttrace exporter: %w", err)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return provider, nil
}

// SetupPrometheusMetrics bridges otel instruments into reg, which is served
// on /metrics alongside the HTTP collectors.
func SetupPrometheusMetrics(reg promclient.Registerer, res *resource.Resource) (*metric.MeterProvider, error) {
	exp, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(
		metric.WithReader(exp),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}
