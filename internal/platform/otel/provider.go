package otel

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	envEndpoint = "SKYLOG_OTEL_ENDPOINT"
	envEnabled  = "SKYLOG_OTEL_ENABLED"
)

// Setup wires OpenTelemetry tracing for serviceName and returns the shutdown
// function that flushes pending spans. Callers defer it around their run loop.
//
// Tracing stays off unless SKYLOG_OTEL_ENDPOINT names an OTLP HTTP collector;
// setting SKYLOG_OTEL_ENABLED to "false" forces it off regardless. When off,
// the returned shutdown is a no-op and the global provider is left untouched.
func Setup(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	endpoint, ok := exportEndpoint()
	if !ok {
		return noop, nil
	}

	tp, err := newTraceProvider(ctx, serviceName, endpoint)
	if err != nil {
		return noop, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// exportEndpoint reads the collector endpoint from the environment,
// reporting false when tracing is disabled or unconfigured.
func exportEndpoint() (string, bool) {
	if strings.EqualFold(os.Getenv(envEnabled), "false") {
		return "", false
	}
	endpoint := os.Getenv(envEndpoint)
	return endpoint, endpoint != ""
}

func newTraceProvider(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}
