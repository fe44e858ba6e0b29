package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/app"
	"github.com/upb/observability-demo-api/handlers"
	"github.com/upb/observability-demo-api/middleware"
	"github.com/upb/observability-demo-api/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	cfg := deps.Config
	logger := deps.Logger

	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing(deps.Tracer))
	r.Use(middleware.Observe(deps.Metrics, logger))
	r.Use(middleware.Recover(logger))
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader, "Uber-Trace-Id"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.Health, logger)
	itemHandler := handlers.NewItemHandler(deps.ItemSvc, logger)
	simulateHandler := handlers.NewSimulateHandler(deps.Simulate, logger)

	r.Get("/", handlers.RootHandler(cfg.ServiceName, cfg.Version, logger))
	r.Get("/health", healthHandler.HandleServiceHealth)

	notFound := envelope(http.StatusNotFound, "not_found", "Resource not found", logger)

	// Disabled operational routes still answer 404 so they never fall
	// through to the tenant routes below.
	if cfg.Observability.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	} else {
		r.Get("/metrics", notFound)
	}
	if cfg.Admin.ShutdownEnabled {
		r.Post("/admin/shutdown", handlers.NewAdminHandler(deps.Shutdown, logger).HandleShutdown)
	} else {
		r.Post("/admin/shutdown", notFound)
	}

	// Tenant scoped routes
	r.Route("/{tenant_id}", func(r chi.Router) {
		r.Use(deps.TenantMiddleware.RequireTenant)

		r.Get("/health", healthHandler.HandleTenantHealth)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.HandleList)
			r.Post("/", itemHandler.HandleCreate)
			r.Get("/count", itemHandler.HandleCount)
			r.Get("/{id}", itemHandler.HandleGet)
			r.Delete("/{id}", itemHandler.HandleDelete)
		})

		r.Route("/simulate", func(r chi.Router) {
			r.Post("/error", simulateHandler.HandleError)
			r.Post("/latency", simulateHandler.HandleLatency)
			r.Post("/metric", simulateHandler.HandleMetric)
		})
	})

	r.NotFound(notFound)
	r.MethodNotAllowed(envelope(http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", logger))

	return r
}

func envelope(status int, errorType, message string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := utils.WriteError(w, status, errorType, message); err != nil {
			logger.Error("failed to write error response", zap.Error(err))
		}
	}
}
