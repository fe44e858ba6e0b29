package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/services/simulate"
	"github.com/upb/observability-demo-api/utils"
)

// SimulateErrorRequest is the optional body of POST /{tenant_id}/simulate/error
type SimulateErrorRequest struct {
	ErrorType string `json:"error_type"`
}

// SimulateLatencyRequest is the optional body of POST /{tenant_id}/simulate/latency
type SimulateLatencyRequest struct {
	DurationMs *int `json:"duration_ms"`
}

// SimulateHandler exposes the fault injector over HTTP
type SimulateHandler struct {
	simulate *simulate.Service
	logger   *zap.Logger
}

// NewSimulateHandler creates a new SimulateHandler
func NewSimulateHandler(simulateService *simulate.Service, logger *zap.Logger) *SimulateHandler {
	return &SimulateHandler{
		simulate: simulateService,
		logger:   logger,
	}
}

// HandleError handles POST /{tenant_id}/simulate/error. It never succeeds.
func (h *SimulateHandler) HandleError(w http.ResponseWriter, r *http.Request) {
	var req SimulateErrorRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	err := h.simulate.SimulateError(r.Context(), chi.URLParam(r, "tenant_id"), req.ErrorType)
	HandleServiceError(w, r, err, h.logger)
}

// HandleLatency handles POST /{tenant_id}/simulate/latency
func (h *SimulateHandler) HandleLatency(w http.ResponseWriter, r *http.Request) {
	var req SimulateLatencyRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	duration := simulate.DefaultLatencyMs
	if req.DurationMs != nil {
		duration = *req.DurationMs
	}

	res, err := h.simulate.SimulateLatency(r.Context(), chi.URLParam(r, "tenant_id"), duration)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	if err := utils.WriteOK(w, res); err != nil {
		h.logger.Error("failed to write latency response", zap.Error(err))
	}
}

// HandleMetric handles POST /{tenant_id}/simulate/metric
func (h *SimulateHandler) HandleMetric(w http.ResponseWriter, r *http.Request) {
	res, err := h.simulate.GenerateRandomMetric(r.Context(), chi.URLParam(r, "tenant_id"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	if err := utils.WriteOK(w, res); err != nil {
		h.logger.Error("failed to write metric response", zap.Error(err))
	}
}

// decodeOptional decodes a body that may be absent. It reports false after
// writing a request_error for malformed JSON.
func (h *SimulateHandler) decodeOptional(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := utils.DecodeJSON(r, dst)
	if err == nil || errors.Is(err, utils.ErrEmptyBody) {
		return true
	}
	HandleRequestError(w, r, err, h.logger)
	return false
}
