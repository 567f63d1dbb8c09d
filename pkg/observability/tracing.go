// Package observability provides OpenTelemetry tracing for connector operations.
//
// Tracing is off unless enabled; the global tracer provider then stays the
// no-op default and spans cost nothing. When enabled, spans are exported as
// JSON to the configured writer (stderr in the CLI, stdout is reserved for
// protocol messages).
package observability

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer used by every connector span.
const InstrumentationName = "github.com/ajitpratap0/nebula-source-elasticsearch"

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// TracingConfig contains tracing configuration
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	// SamplingRate in [0,1]; values >= 1 sample everything
	SamplingRate float64
	// Writer receives exported spans, os.Stderr when nil
	Writer io.Writer
}

// InitTracing installs a global tracer provider exporting to cfg.Writer.
// The returned ShutdownFunc must be called before exit to flush spans.
func InitTracing(cfg TracingConfig) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRate <= 0 || cfg.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// ConnectorTracer provides connector-specific tracing utilities
type ConnectorTracer struct {
	connectorType string
	connectorName string
	tracer        trace.Tracer
}

// NewConnectorTracer creates a tracer backed by the global provider.
func NewConnectorTracer(connectorType, connectorName string) *ConnectorTracer {
	return NewConnectorTracerWithProvider(connectorType, connectorName, otel.GetTracerProvider())
}

// NewConnectorTracerWithProvider creates a tracer backed by tp.
func NewConnectorTracerWithProvider(connectorType, connectorName string, tp trace.TracerProvider) *ConnectorTracer {
	return &ConnectorTracer{
		connectorType: connectorType,
		connectorName: connectorName,
		tracer:        tp.Tracer(InstrumentationName),
	}
}

// StartSpan starts a span named "<type>.<name>.<operation>" carrying the
// connector attributes.
func (ct *ConnectorTracer) StartSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	operationName := fmt.Sprintf("%s.%s.%s", ct.connectorType, ct.connectorName, operation)

	attrs = append(attrs,
		attribute.String("connector.type", ct.connectorType),
		attribute.String("connector.name", ct.connectorName),
		attribute.String("connector.operation", operation),
	)
	return ct.tracer.Start(ctx, operationName, trace.WithAttributes(attrs...))
}

// Trace runs fn inside a span and records its error on the span.
func (ct *ConnectorTracer) Trace(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := ct.StartSpan(ctx, operation)
	defer span.End()

	err := fn(ctx)
	SetSpanStatus(span, err)
	return err
}

// SetSpanStatus records err on span, or marks it Ok when err is nil.
func SetSpanStatus(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
