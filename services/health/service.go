// Package health implements the synthetic database probes behind the health
// endpoints: L2 (service-wide connectivity) and L3 (tenant-scoped read).
package health

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/internal/observability"
	"github.com/upb/observability-demo-api/utils"
)

const (
	StatusOK    = "ok"
	StatusError = "error"

	DatabaseConnected    = "connected"
	DatabaseDisconnected = "disconnected"

	LevelService = "L2"
	LevelTenant  = "L3"
)

// Result is the probe outcome. TenantID is set for tenant probes only.
type Result struct {
	Status    string `json:"status"`
	TenantID  string `json:"tenant_id,omitempty"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// Healthy reports whether the probe succeeded.
func (r Result) Healthy() bool {
	return r.Status == StatusOK
}

// DatabaseChecker runs the service-wide connectivity probe.
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// TenantProber runs the tenant-scoped probe.
type TenantProber interface {
	ProbeTenant(ctx context.Context, tenantID string) error
}

// TenantValidator gates the tenant probe.
type TenantValidator interface {
	Validate(tenantID string) error
}

// Service runs single-shot probes bounded by a timeout. Probes never retry.
type Service struct {
	db        DatabaseChecker
	prober    TenantProber
	validator TenantValidator
	timeout   time.Duration
	clock     clock.Clock
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewService creates a new health Service instance. metrics may be nil.
func NewService(db DatabaseChecker, prober TenantProber, validator TenantValidator, timeout time.Duration,
	clk clock.Clock, metrics *observability.Metrics, logger *zap.Logger) *Service {
	return &Service{
		db:        db,
		prober:    prober,
		validator: validator,
		timeout:   timeout,
		clock:     clk,
		metrics:   metrics,
		logger:    logger,
	}
}

// CheckService probes database connectivity. It never fails; a broken
// database yields a Result with status "error".
func (s *Service) CheckService(ctx context.Context) Result {
	span, ctx := opentracing.StartSpanFromContext(ctx, "health.CheckService")
	defer span.Finish()
	span.SetTag("health_check_level", LevelService)
	span.SetTag("health_check_type", "service")

	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.HealthCheck(probeCtx); err != nil {
		s.recordFailure(ctx, span, LevelService, "service", err)
		return s.result(StatusError, DatabaseDisconnected, "")
	}
	return s.result(StatusOK, DatabaseConnected, "")
}

// CheckTenant validates the tenant, then runs the tenant-scoped probe.
// Only tenant validation produces an error.
func (s *Service) CheckTenant(ctx context.Context, tenantID string) (Result, error) {
	if err := s.validator.Validate(tenantID); err != nil {
		return Result{}, err
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "health.CheckTenant")
	defer span.Finish()
	span.SetTag("health_check_level", LevelTenant)
	span.SetTag("health_check_type", "tenant")
	span.SetTag("tenant.id", tenantID)

	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.prober.ProbeTenant(probeCtx, tenantID); err != nil {
		s.recordFailure(ctx, span, LevelTenant, "tenant", err, zap.String("tenant_id", tenantID))
		return s.result(StatusError, DatabaseDisconnected, tenantID), nil
	}
	return s.result(StatusOK, DatabaseConnected, tenantID), nil
}

func (s *Service) result(status, database, tenantID string) Result {
	return Result{
		Status:    status,
		TenantID:  tenantID,
		Database:  database,
		Timestamp: utils.FormatTimestamp(s.clock.Now()),
	}
}

func (s *Service) recordFailure(ctx context.Context, span opentracing.Span, level, checkType string, err error, extra ...zap.Field) {
	ext.Error.Set(span, true)
	span.SetTag("error.type", "db_connection_failed")
	span.SetTag("error.message", err.Error())

	if s.metrics != nil {
		s.metrics.HealthCheckFailures.WithLabelValues(level).Inc()
	}

	fields := append([]zap.Field{
		zap.String("health_check_level", level),
		zap.String("health_check_type", checkType),
		zap.String("error_type", "db_connection_failed"),
		zap.String("severity", "error"),
		zap.Error(err),
	}, extra...)
	observability.WithRequest(ctx, s.logger).Error("database health check failed", fields...)
}
