package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/utils"
)

// RootHandler returns the service banner served at GET /
func RootHandler(serviceName, version string, logger *zap.Logger) http.HandlerFunc {
	body := utils.MessageResponse{
		Message: fmt.Sprintf("%s is running", serviceName),
		Version: version,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := utils.WriteOK(w, body); err != nil {
			logger.Error("failed to write root response", zap.Error(err))
		}
	}
}
