package observability

import (
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegerconfig "github.com/uber/jaeger-client-go/config"
	jaegerzap "github.com/uber/jaeger-client-go/log/zap"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewTracer returns the Jaeger tracer when tracing is enabled and a no-op
// tracer otherwise. The closer flushes buffered spans.
func NewTracer(cfg *config.Config, logger *zap.Logger) (opentracing.Tracer, io.Closer, error) {
	if !cfg.Observability.TracingEnabled {
		logger.Info("tracing disabled")
		return opentracing.NoopTracer{}, nopCloser{}, nil
	}

	jc := jaegerconfig.Configuration{
		ServiceName: cfg.ServiceName,
		Sampler: &jaegerconfig.SamplerConfig{
			Type:  jaeger.SamplerTypeProbabilistic,
			Param: cfg.Observability.TracingSampleRate,
		},
		Reporter: &jaegerconfig.ReporterConfig{
			LocalAgentHostPort: cfg.Observability.TracingAgentHostPort,
		},
		Tags: []opentracing.Tag{
			{Key: "env", Value: cfg.Environment},
			{Key: "version", Value: cfg.Version},
		},
	}

	tracer, closer, err := jc.NewTracer(jaegerconfig.Logger(jaegerzap.NewLogger(logger)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to instantiate Jaeger tracer: %w", err)
	}

	logger.Info("tracing via Jaeger",
		zap.String("agent", cfg.Observability.TracingAgentHostPort),
		zap.Float64("sample_rate", cfg.Observability.TracingSampleRate),
	)
	return tracer, closer, nil
}

// SpanIDs returns the hex trace and span ids of a Jaeger span.
// ok is false for spans from other tracers, including the no-op tracer.
func SpanIDs(span opentracing.Span) (traceID, spanID string, ok bool) {
	sc, isJaeger := span.Context().(jaeger.SpanContext)
	if !isJaeger || !sc.IsValid() {
		return "", "", false
	}
	return sc.TraceID().String(), sc.SpanID().String(), true
}
