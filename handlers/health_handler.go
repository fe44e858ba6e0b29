package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/services/health"
	"github.com/upb/observability-demo-api/utils"
)

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	health *health.Service
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(healthService *health.Service, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		health: healthService,
		logger: logger,
	}
}

// HandleServiceHealth handles GET /health (L2 probe)
func (h *HealthHandler) HandleServiceHealth(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.health.CheckService(r.Context()))
}

// HandleTenantHealth handles GET /{tenant_id}/health (L3 probe)
func (h *HealthHandler) HandleTenantHealth(w http.ResponseWriter, r *http.Request) {
	res, err := h.health.CheckTenant(r.Context(), chi.URLParam(r, "tenant_id"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	h.writeResult(w, res)
}

func (h *HealthHandler) writeResult(w http.ResponseWriter, res health.Result) {
	status := http.StatusOK
	if !res.Healthy() {
		status = http.StatusServiceUnavailable
	}
	if err := utils.WriteJSON(w, status, res); err != nil {
		h.logger.Error("failed to write health response", zap.Error(err))
	}
}
