package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/handlers"
	"github.com/upb/observability-demo-api/internal/observability"
	"github.com/upb/observability-demo-api/services"
)

// Recover turns a handler panic into a 500 unexpected_error envelope.
// http.ErrAbortHandler is re-raised so net/http can abort the response.
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				observability.WithRequest(r.Context(), logger).Error("panic recovered",
					zap.Any("panic", rvr),
					zap.ByteString("stack", debug.Stack()),
				)
				err := services.WrapUnexpected("handler panicked", fmt.Errorf("panic: %v", rvr))
				handlers.HandleServiceError(w, r, err, logger)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
