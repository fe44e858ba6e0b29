package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service. All collectors are
// registered on the registry passed to NewMetrics.
type Metrics struct {
	// HTTPRequestsTotal counts requests by method, route pattern and status.
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration observes request latency by method and route pattern.
	HTTPRequestDuration *prometheus.HistogramVec

	SimulatedErrors     *prometheus.CounterVec
	HealthCheckFailures *prometheus.CounterVec
	RandomMetric        *prometheus.GaugeVec
	ItemsCreated        *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demo_http_requests_total",
				Help: "Total number of HTTP requests handled by the demo API",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "demo_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SimulatedErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demo_simulated_errors_total",
				Help: "Errors produced on purpose by the fault injector",
			},
			[]string{"tenant_id", "error_type"},
		),
		HealthCheckFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demo_health_check_failures_total",
				Help: "Failed health probes by level (L2 service, L3 tenant)",
			},
			[]string{"level"},
		),
		RandomMetric: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "demo_random_metric",
				Help: "Last random value generated per tenant",
			},
			[]string{"tenant_id"},
		),
		ItemsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demo_items_created_total",
				Help: "Records created per tenant",
			},
			[]string{"tenant_id"},
		),
	}
}
