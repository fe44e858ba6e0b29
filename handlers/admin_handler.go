package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/internal/observability"
	"github.com/upb/observability-demo-api/utils"
)

// ShutdownFunc starts a graceful shutdown of the process. It must not block
// on in-flight requests.
type ShutdownFunc func()

// AdminHandler handles the administrative endpoints
type AdminHandler struct {
	shutdown ShutdownFunc
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(shutdown ShutdownFunc, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		shutdown: shutdown,
		logger:   logger,
	}
}

// HandleShutdown handles POST /admin/shutdown. The response is written
// before shutdown begins so the caller always gets an answer.
func (h *AdminHandler) HandleShutdown(w http.ResponseWriter, r *http.Request) {
	observability.WithRequest(r.Context(), h.logger).Warn("shutdown requested via admin endpoint",
		zap.String("remote_addr", r.RemoteAddr))

	if err := utils.WriteOK(w, utils.MessageResponse{
		Message: "Shutdown initiated",
		Status:  "shutting_down",
	}); err != nil {
		h.logger.Error("failed to write shutdown response", zap.Error(err))
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	h.shutdown()
}
