// Package tracing installs the OpenTelemetry tracer provider used by the generator spans.
package tracing

import (
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects where spans go and how many are kept.
type Config struct {
	ServiceName    string
	JaegerEndpoint string
	// SampleRatio is the share of root traces recorded; values >= 1 keep everything.
	SampleRatio float64
}

// InitTracerProvider registers a global TracerProvider exporting to Jaeger.
// Callers must Shutdown the provider to flush pending spans.
func InitTracerProvider(cfg Config) (*sdktrace.TracerProvider, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	log.Info().
		Str("service", cfg.ServiceName).
		Str("endpoint", cfg.JaegerEndpoint).
		Float64("sample_ratio", cfg.SampleRatio).
		Msg("tracing initialized")
	return tp, nil
}

// sampler honours an incoming sampling decision and applies ratio to new traces.
func sampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}
