package zensegur

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/event"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Telemetry struct {
	tracer      trace.Tracer
	provider    *sdktrace.TracerProvider
	serviceName string
}

type ZSfSpan struct {
	span trace.Span
}

// NewTelemetry exports spans over OTLP/HTTP when an endpoint is configured and
// falls back to a no-op tracer otherwise.
func NewTelemetry(ctx context.Context, cfg TelemetryConfig) (*Telemetry, error) {
	if cfg.Endpoint == "" {
		return &Telemetry{
			tracer:      noop.NewTracerProvider().Tracer(cfg.ProjectName),
			serviceName: cfg.ProjectName,
		}, nil
	}

	traceConnOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.ApiKey != "" {
		traceConnOpts = append(traceConnOpts, otlptracehttp.WithHeaders(map[string]string{"api-key": cfg.ApiKey}))
	}

	exporter, err := otlptracehttp.New(ctx, traceConnOpts...)
	if err != nil {
		return nil, err
	}

	resources, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ProjectName),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resources),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return &Telemetry{
		tracer: provider.Tracer(
			cfg.ProjectName,
			trace.WithInstrumentationVersion(os.Getenv("APPVERSION")),
			trace.WithSchemaURL(semconv.SchemaURL)),
		provider:    provider,
		serviceName: cfg.ProjectName,
	}, nil
}

func (t *Telemetry) Enabled() bool {
	return t != nil && t.provider != nil
}

func (t *Telemetry) gin() gin.HandlerFunc {
	return otelgin.Middleware(t.serviceName, otelgin.WithTracerProvider(t.provider))
}

func (t *Telemetry) mongoMonitor() *event.CommandMonitor {
	return otelmongo.NewMonitor(otelmongo.WithTracerProvider(t.provider))
}

func (t *Telemetry) StartTransaction(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, *ZSfSpan) {
	if t == nil {
		return ctx, &ZSfSpan{}
	}
	if id := RunID(ctx); id != "" {
		opts = append(opts, trace.WithAttributes(attribute.String("run.id", id)))
	}
	ctx, s := t.tracer.Start(ctx, spanName, opts...)
	return ctx, &ZSfSpan{span: s}
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

func (g *ZSfSpan) Fail(err error) {
	if g.span != nil && err != nil {
		g.span.RecordError(err)
		g.span.SetStatus(codes.Error, err.Error())
	}
}

func (g *ZSfSpan) End() {
	if g.span != nil {
		g.span.End()
	}
}
