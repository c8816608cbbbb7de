package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"stockstats/internal/config"
)

const (
	ServiceName = config.AppName
	MeterName   = "stockstats"
)

// Trace exporters accepted by TelemetryConfig.TraceExporter
const (
	TraceExporterStdout = "stdout"
	TraceExporterNone   = "none"
)

// OTelProviders bundles the tracer and meter of one process. Disabled
// signals are no-ops, so Tracer, Meter and Metrics are never nil; Registry,
// PrometheusHTTP and the SDK providers are nil when their signal is off.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *StockMetrics
	Registry       *prometheus.Registry
	PrometheusHTTP http.Handler
}

// InitializeOTel builds the providers described by cfg and installs them,
// with the W3C propagator, as the otel globals.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	logger.Debug("Initializing OpenTelemetry",
		slog.String("service", ServiceName),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.TracingEnabled),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Bool("metrics_enabled", cfg.MetricsEnabled))

	res := newResource(cfg.Environment)
	p := &OTelProviders{
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
	}

	if cfg.TracingEnabled {
		tp, err := newTracerProvider(cfg, res)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
		if tp != nil {
			p.TracerProvider = tp
			p.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
			otel.SetTracerProvider(tp)
		}
	}

	if cfg.MetricsEnabled {
		mp, registry, err := newMeterProvider(res)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		p.MeterProvider = mp
		p.Registry = registry
		p.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		p.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
		otel.SetMeterProvider(mp)
	}

	metrics, err := NewStockMetrics(p.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	p.Metrics = metrics

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return p, nil
}

func newResource(environment string) *resource.Resource {
	hostname, _ := os.Hostname()
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(environment),
		semconv.HostName(hostname),
		attribute.String("service.instance.id", uuid.New().String()),
	)
}

// newTracerProvider returns nil for the "none" exporter. The stdout
// exporter writes to stderr so CLI results on stdout stay clean.
func newTracerProvider(cfg config.TelemetryConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	switch cfg.TraceExporter {
	case TraceExporterNone:
		return nil, nil
	case TraceExporterStdout:
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	), nil
}

// newMeterProvider feeds a dedicated registry, which also carries the Go
// runtime and process collectors.
func newMeterProvider(res *resource.Resource) (*sdkmetric.MeterProvider, *prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(exporter))
	return mp, registry, nil
}

// WriteMetricsTextfile dumps the registry in node_exporter textfile format
func (p *OTelProviders) WriteMetricsTextfile(path string) error {
	if p.Registry == nil {
		return errors.New("metrics are disabled")
	}
	return prometheus.WriteToTextfile(path, p.Registry)
}

// Shutdown flushes pending spans and metrics
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
