package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/config"
	"github.com/upb/observability-demo-api/handlers"
	"github.com/upb/observability-demo-api/internal/observability"
	"github.com/upb/observability-demo-api/middleware"
	"github.com/upb/observability-demo-api/repositories"
	"github.com/upb/observability-demo-api/repositories/postgres"
	"github.com/upb/observability-demo-api/services/health"
	"github.com/upb/observability-demo-api/services/items"
	"github.com/upb/observability-demo-api/services/simulate"
	"github.com/upb/observability-demo-api/services/tenant"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	Logger   *zap.Logger
	Clock    clock.Clock
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Tracer   opentracing.Tracer
	DB       *postgres.DB

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Items repositories.ItemRepository

	// Services
	Tenants  *tenant.Validator
	ItemSvc  *items.Service
	Health   *health.Service
	Simulate *simulate.Service

	// HTTP
	TenantMiddleware *middleware.TenantMiddleware

	// Shutdown starts a graceful stop of the process; used by POST /admin/shutdown.
	Shutdown handlers.ShutdownFunc

	tracerCloser io.Closer
}

// NewDependencies creates and wires up all application dependencies,
// opening the database pool described by cfg.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	clk := clock.New()

	factory, err := postgres.NewRepositoryFactory(cfg, clk, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Database.InitSchema {
		if err := factory.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	deps, err := newDependencies(cfg, factory, clk, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesWithDB wires the application over an existing pool.
// The clock drives item timestamps, probe results and latency simulation.
func NewDependenciesWithDB(cfg *config.Config, db *postgres.DB, clk clock.Clock, logger *zap.Logger) (*Dependencies, error) {
	return newDependencies(cfg, postgres.NewRepositoryFactoryWithDB(db, clk, logger), clk, logger)
}

func newDependencies(cfg *config.Config, factory *postgres.RepositoryFactory, clk clock.Clock, logger *zap.Logger) (*Dependencies, error) {
	d := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		Clock:       clk,
		RepoFactory: factory,
		DB:          factory.GetDB(),
		Shutdown:    signalSelf,
	}

	if err := d.initTracing(); err != nil {
		return nil, err
	}
	d.initMetrics()
	d.initServices()

	return d, nil
}

// initTracing installs the tracer globally; services start spans from context.
func (d *Dependencies) initTracing() error {
	tracer, closer, err := observability.NewTracer(d.Config, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	opentracing.SetGlobalTracer(tracer)
	d.Tracer = tracer
	d.tracerCloser = closer
	return nil
}

func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewMetrics(d.Registry)
}

func (d *Dependencies) initServices() {
	repos := d.RepoFactory.NewRepositories()
	d.Items = repos.Items

	d.Tenants = tenant.NewValidator(d.Config.Tenants.ValidTenants)
	d.ItemSvc = items.NewService(d.Items, d.Tenants, d.Metrics, d.Logger)
	d.Health = health.NewService(d.DB, d.Items, d.Tenants, d.Config.Observability.HealthCheckTimeout,
		d.Clock, d.Metrics, d.Logger)
	d.Simulate = simulate.NewService(d.Tenants, d.Clock, d.Metrics, d.Logger)
	d.TenantMiddleware = middleware.NewTenantMiddleware(d.Tenants, d.Logger)

	d.Logger.Info("services initialized", zap.Strings("valid_tenants", d.Tenants.Tenants()))
}

// signalSelf delivers SIGTERM to the running process so the server's signal
// handler performs the usual graceful shutdown.
func signalSelf() {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = p.Signal(syscall.SIGTERM)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var result *multierror.Error

	if d.tracerCloser != nil {
		if err := d.tracerCloser.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to flush tracer: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	return result.ErrorOrNil()
}
