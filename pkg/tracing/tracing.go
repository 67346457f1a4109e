// Package tracing configures OpenTelemetry for reconkit. Without an OTLP
// endpoint it hands out a no-op tracer, so spans cost nothing by default.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/reconkit/reconkit/pkg/defaults"
	"github.com/reconkit/reconkit/pkg/duration"
)

// InstrumentationName names the tracer used by discovery and recon.
const InstrumentationName = "github.com/reconkit/reconkit"

// Options configures the OTLP exporter.
type Options struct {
	// Endpoint is the OTLP gRPC endpoint (e.g. "localhost:4317"). Empty disables export.
	Endpoint string

	// ServiceName is the service.name resource attribute (default: "reconkit").
	ServiceName string

	// Insecure uses a plaintext gRPC connection.
	Insecure bool

	// Headers are sent with every export request.
	Headers map[string]string

	// SampleRatio is the fraction of traces kept, in (0, 1]. Zero means always sample.
	SampleRatio float64
}

// Provider owns the tracer provider for one process.
type Provider struct {
	sdk    *sdktrace.TracerProvider
	tracer trace.Tracer
}

// Setup builds a Provider from opts and installs it as the global provider
// when exporting is enabled.
func Setup(ctx context.Context, opts Options) (*Provider, error) {
	if opts.Endpoint == "" {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(InstrumentationName)}, nil
	}
	if opts.ServiceName == "" {
		opts.ServiceName = defaults.ToolName
	}

	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(opts.Endpoint),
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	connectCtx, cancel := context.WithTimeout(ctx, duration.TracingConnect)
	defer cancel()

	exporter, err := otlptracegrpc.New(connectCtx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("tracing: create exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "discovery"),
	)

	sampler := sdktrace.AlwaysSample()
	if opts.SampleRatio > 0 && opts.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)

	return &Provider{sdk: tp, tracer: tp.Tracer(InstrumentationName)}, nil
}

// NewWithSDK wraps an existing SDK provider, used by tests that record spans.
func NewWithSDK(tp *sdktrace.TracerProvider) *Provider {
	return &Provider{sdk: tp, tracer: tp.Tracer(InstrumentationName)}
}

// Tracer returns the provider's tracer. A nil Provider yields a no-op tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil || p.tracer == nil {
		return noop.NewTracerProvider().Tracer(InstrumentationName)
	}
	return p.tracer
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.sdk != nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, duration.TracingShutdown)
	defer cancel()
	return p.sdk.Shutdown(ctx)
}
