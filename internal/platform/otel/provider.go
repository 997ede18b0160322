// Package otel configures OpenTelemetry tracing for questrunner. The
// orchestrator spans manual operations and the engine client and health
// server are instrumented by otelgrpc; all of them export through the
// provider installed here.
package otel

import (
	"context"
	"os"
	"strings"

	"github.com/louisbranch/questrunner/internal/platform/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Setup installs the global tracer provider exporting to
// QUESTRUNNER_OTEL_ENDPOINT over OTLP/HTTP, with W3C trace context
// propagation so journal entries carry ids that match the exported spans.
//
// Without an endpoint, or with QUESTRUNNER_OTEL_ENABLED=false, nothing is
// installed: spans stay non-recording and journal entries carry no trace ids.
// The returned function flushes pending spans.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if strings.EqualFold(os.Getenv(config.EnvName("otel_enabled")), "false") {
		return noop, nil
	}

	endpoint := strings.TrimSpace(os.Getenv(config.EnvName("otel_endpoint")))
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
