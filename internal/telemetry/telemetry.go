// Package telemetry installs the OpenTelemetry tracer provider used by the
// backend client's instrumented transport.
package telemetry

import (
	"context"
	"fmt"
	"io"

	otelglobal "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Exporter names accepted by Setup.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// ShutdownFunc flushes and stops the provider. Safe to call when tracing
// is disabled.
type ShutdownFunc func(context.Context) error

// Setup builds a TracerProvider for the named exporter and installs it as
// the global provider. The stdout exporter writes JSON spans to w, which
// must not be the MCP channel. "" and "none" leave the global no-op
// provider in place.
func Setup(ctx context.Context, exporter, serviceName, version string, w io.Writer) (ShutdownFunc, error) {
	tp, err := NewTracerProvider(ctx, exporter, serviceName, version, w)
	if err != nil {
		return nil, err
	}
	if tp == nil {
		return func(context.Context) error { return nil }, nil
	}
	otelglobal.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// NewTracerProvider returns nil for the none exporter.
func NewTracerProvider(ctx context.Context, exporter, serviceName, version string, w io.Writer) (*sdktrace.TracerProvider, error) {
	var exp sdktrace.SpanExporter
	switch exporter {
	case "", ExporterNone:
		return nil, nil
	case ExporterStdout:
		e, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("creating stdout exporter: %w", err)
		}
		exp = e
	default:
		return nil, fmt.Errorf("unknown trace exporter %q (want %s or %s)", exporter, ExporterNone, ExporterStdout)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}

// TracerProvider returns the global provider.
func TracerProvider() trace.TracerProvider {
	return otelglobal.GetTracerProvider()
}
