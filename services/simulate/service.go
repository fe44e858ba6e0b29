// Package simulate produces failure, latency and metric telemetry on demand.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/internal/observability"
	"github.com/upb/observability-demo-api/services"
	"github.com/upb/observability-demo-api/utils"
)

const (
	MinLatencyMs     = 100
	MaxLatencyMs     = 10000
	DefaultLatencyMs = 1000

	DefaultErrorType = "generic"
	RandomMetricName = "demo.random_metric"
)

var errorTemplates = map[string]string{
	"generic":      "Simulated generic error for tenant %s",
	"database":     "Simulated database error for tenant %s",
	"external_api": "Simulated external API error for tenant %s",
}

// LatencyResult is returned after a completed latency simulation.
type LatencyResult struct {
	TenantID  string `json:"tenant_id"`
	LatencyMs int    `json:"latency_ms"`
	Message   string `json:"message"`
}

// MetricResult is a generated random metric sample.
type MetricResult struct {
	TenantID    string  `json:"tenant_id"`
	MetricName  string  `json:"metric_name"`
	MetricValue float64 `json:"metric_value"`
	Timestamp   string  `json:"timestamp"`
}

// TenantValidator gates every simulation.
type TenantValidator interface {
	Validate(tenantID string) error
}

// Service is the fault injector
type Service struct {
	validator TenantValidator
	clock     clock.Clock
	metrics   *observability.Metrics
	logger    *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewService creates a new simulate Service instance. metrics may be nil.
func NewService(validator TenantValidator, clk clock.Clock, metrics *observability.Metrics, logger *zap.Logger) *Service {
	return &Service{
		validator: validator,
		clock:     clk,
		metrics:   metrics,
		logger:    logger,
		rnd:       rand.New(rand.NewSource(clk.Now().UnixNano())),
	}
}

// TemplateKey maps errorType onto a known template. Anything unknown is generic.
func TemplateKey(errorType string) string {
	if _, ok := errorTemplates[errorType]; ok {
		return errorType
	}
	return DefaultErrorType
}

// ErrorMessage renders the message template for errorType.
func ErrorMessage(tenantID, errorType string) string {
	return fmt.Sprintf(errorTemplates[TemplateKey(errorType)], tenantID)
}

// SimulateError always fails with an unexpected error carrying the rendered
// message, after logging and counting it. The caller's errorType only reaches
// the log entry and the span; the counter is labelled with the template key.
func (s *Service) SimulateError(ctx context.Context, tenantID, errorType string) error {
	if err := s.validator.Validate(tenantID); err != nil {
		return err
	}
	if errorType == "" {
		errorType = DefaultErrorType
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "simulate.Error")
	defer span.Finish()
	span.SetTag("tenant.id", tenantID)
	span.SetTag("simulation", true)
	span.SetTag("simulation.error_type", errorType)

	message := ErrorMessage(tenantID, errorType)

	observability.WithRequest(ctx, s.logger).Error("Simulating error: "+message,
		zap.String("tenant_id", tenantID),
		zap.String("error_type", errorType),
		zap.Bool("simulation", true),
		zap.String("severity", "error"),
	)
	if s.metrics != nil {
		s.metrics.SimulatedErrors.WithLabelValues(tenantID, TemplateKey(errorType)).Inc()
	}

	return services.WrapUnexpected(message, errors.New(message))
}

// SimulateLatency blocks for exactly durationMs on the service clock. The wait
// ends early only when ctx is done, in which case ctx.Err() is returned.
func (s *Service) SimulateLatency(ctx context.Context, tenantID string, durationMs int) (*LatencyResult, error) {
	if err := s.validator.Validate(tenantID); err != nil {
		return nil, err
	}
	if durationMs < MinLatencyMs || durationMs > MaxLatencyMs {
		return nil, services.NewValidationError(fmt.Sprintf(
			"duration_ms must be between %d and %d", MinLatencyMs, MaxLatencyMs))
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "simulate.Latency")
	defer span.Finish()
	span.SetTag("tenant.id", tenantID)
	span.SetTag("simulation", true)
	span.SetTag("latency_ms", durationMs)

	observability.WithRequest(ctx, s.logger).Info(
		fmt.Sprintf("Simulating latency: %dms for tenant %s", durationMs, tenantID),
		zap.Int("latency_ms", durationMs),
		zap.Bool("simulation", true),
	)

	timer := s.clock.Timer(time.Duration(durationMs) * time.Millisecond)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		span.SetTag("cancelled", true)
		return nil, ctx.Err()
	}

	return &LatencyResult{
		TenantID:  tenantID,
		LatencyMs: durationMs,
		Message:   fmt.Sprintf("Simulated latency of %dms for tenant %s", durationMs, tenantID),
	}, nil
}

// GenerateRandomMetric samples a value in [0, 100) and records it in the
// tenant's random metric gauge.
func (s *Service) GenerateRandomMetric(ctx context.Context, tenantID string) (*MetricResult, error) {
	if err := s.validator.Validate(tenantID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	value := s.rnd.Float64() * 100
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RandomMetric.WithLabelValues(tenantID).Set(value)
	}
	observability.WithRequest(ctx, s.logger).Info("random metric generated",
		zap.String("metric_name", RandomMetricName),
		zap.Float64("metric_value", value),
		zap.Bool("simulation", true),
	)

	return &MetricResult{
		TenantID:    tenantID,
		MetricName:  RandomMetricName,
		MetricValue: value,
		Timestamp:   utils.FormatTimestamp(s.clock.Now()),
	}, nil
}
