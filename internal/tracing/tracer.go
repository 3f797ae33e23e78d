package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider manages the lifecycle of the OpenTelemetry tracer.
type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

// NewTracerProvider creates an OTLP-exporting tracer provider and installs it
// globally. When otlpEndpoint is empty tracing stays on the default no-op
// provider and nil is returned.
func NewTracerProvider(serviceName, serviceVersion, otlpEndpoint string) (*TracerProvider, error) {
	if otlpEndpoint == "" {
		return nil, nil
	}

	exporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &TracerProvider{tp: tp}, nil
}

// Shutdown gracefully shuts down the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.tp == nil {
		return nil
	}
	return tp.tp.Shutdown(ctx)
}

// ProbeTracer wraps spans around synthetic probe executions.
type ProbeTracer struct {
	tracer trace.Tracer
}

func NewProbeTracer(serviceName string) *ProbeTracer {
	return &ProbeTracer{tracer: otel.Tracer(serviceName)}
}

// StartProbeSpan starts a span for one synthetic probe run.
func (pt *ProbeTracer) StartProbeSpan(ctx context.Context, monitor, method, url string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "synthetic_probe",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("probe.monitor", monitor),
			attribute.String("http.method", method),
			attribute.String("http.url", url),
			attribute.String("component", "synthetics"),
		),
	)
}

// EndProbeSpan records the probe outcome and ends the span.
func (pt *ProbeTracer) EndProbeSpan(span trace.Span, status int, ok bool, errMsg string) {
	span.SetAttributes(attribute.Int("http.status_code", status))
	if ok {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, errMsg)
	}
	span.End()
}

// TraceparentHeader renders the active span context as a W3C traceparent
// header value, or "" when no span is recording.
func TraceparentHeader(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	flags := "00"
	if sc.IsSampled() {
		flags = "01"
	}
	return fmt.Sprintf("00-%s-%s-%s", sc.TraceID(), sc.SpanID(), flags)
}

// ActiveTraceID returns the hex trace id of the active span, or "".
func ActiveTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
