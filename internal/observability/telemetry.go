// Package observability wires OpenTelemetry tracing and metrics for the service.
// Traces are exported over OTLP gRPC and metrics are exposed through the
// Prometheus exporter on the default registry.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Telemetry holds the providers and instruments used across the service.
// A nil *Telemetry is valid: every Record method is a no-op on it.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	logger         *zap.Logger

	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	ErrorCounter      metric.Int64Counter
	DBQueryDuration   metric.Float64Histogram
	UpstreamCounter   metric.Int64Counter
	UpstreamDuration  metric.Float64Histogram
	PersistedRequests metric.Int64Counter
}

// Config describes the service resource and the trace exporter.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64
}

// InitTelemetry creates the providers, installs them globally and registers instruments.
//
// Parameters:
//   - ctx: Context for exporter setup
//   - cfg: Resource and exporter settings
//   - logger: Zap logger
//
// Returns:
//   - *Telemetry: Initialized telemetry
//   - error: Resource, exporter or instrument error
func InitTelemetry(ctx context.Context, cfg Config, logger *zap.Logger) (*Telemetry, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tracerProvider, err := initTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracer provider: %w", err)
	}

	meterProvider, err := initMeterProvider(res)
	if err != nil {
		return nil, fmt.Errorf("failed to init meter provider: %w", err)
	}

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	meter := meterProvider.Meter(cfg.ServiceName)

	t := &Telemetry{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Tracer:         tracerProvider.Tracer(cfg.ServiceName),
		Meter:          meter,
		logger:         logger,
	}

	if err := t.registerInstruments(); err != nil {
		return nil, err
	}

	logger.Info("telemetry initialized",
		zap.String("service", cfg.ServiceName),
		zap.String("otlp_endpoint", cfg.OTLPEndpoint),
		zap.Float64("sample_rate", cfg.SampleRate))

	return t, nil
}

func (t *Telemetry) registerInstruments() error {
	var err error

	if t.RequestCounter, err = t.Meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"),
	); err != nil {
		return err
	}

	if t.RequestDuration, err = t.Meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return err
	}

	if t.ErrorCounter, err = t.Meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
		metric.WithUnit("1"),
	); err != nil {
		return err
	}

	if t.DBQueryDuration, err = t.Meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Database query duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return err
	}

	if t.UpstreamCounter, err = t.Meter.Int64Counter(
		"upstream_calls_total",
		metric.WithDescription("Calls to external providers by provider and outcome"),
		metric.WithUnit("1"),
	); err != nil {
		return err
	}

	if t.UpstreamDuration, err = t.Meter.Float64Histogram(
		"upstream_call_duration_seconds",
		metric.WithDescription("External provider call duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return err
	}

	t.PersistedRequests, err = t.Meter.Int64Counter(
		"weather_requests_persisted_total",
		metric.WithDescription("Weather requests written to the store, by operation"),
		metric.WithUnit("1"),
	)

	return err
}

func initTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptrace.New(
		ctx,
		otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)

	return tp, nil
}

func initMeterProvider(res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	return mp, nil
}

// RecordRequest records one served HTTP request.
func (t *Telemetry) RecordRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if t == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status_code", statusCode),
	)

	t.RequestCounter.Add(ctx, 1, attrs)
	t.RequestDuration.Record(ctx, duration.Seconds(), attrs)

	if statusCode >= 400 {
		t.ErrorCounter.Add(ctx, 1, attrs)
	}
}

// RecordDBQuery records the duration and outcome of a store operation.
func (t *Telemetry) RecordDBQuery(ctx context.Context, operation string, duration time.Duration, err error) {
	if t == nil {
		return
	}

	t.DBQueryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("error", err != nil),
	))

	if err != nil {
		t.ErrorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", "database"),
			attribute.String("operation", operation),
		))
	}
}

// RecordUpstreamCall records one call to an external provider such as geocoding or video search.
func (t *Telemetry) RecordUpstreamCall(ctx context.Context, provider string, duration time.Duration, err error) {
	if t == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("error", err != nil),
	)

	t.UpstreamCounter.Add(ctx, 1, attrs)
	t.UpstreamDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordPersisted counts a successful create or update of a weather request.
func (t *Telemetry) RecordPersisted(ctx context.Context, operation string) {
	if t == nil {
		return
	}

	t.PersistedRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	if err := t.TracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}

	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}

	return nil
}
