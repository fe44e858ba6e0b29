package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/handlers"
	"github.com/upb/observability-demo-api/internal/shared"
)

// TenantValidator checks a tenant id against the allowlist.
type TenantValidator interface {
	Validate(tenantID string) error
}

// TenantMiddleware admits requests for allowlisted tenants only
type TenantMiddleware struct {
	validator TenantValidator
	logger    *zap.Logger
}

// NewTenantMiddleware creates a new TenantMiddleware
func NewTenantMiddleware(validator TenantValidator, logger *zap.Logger) *TenantMiddleware {
	return &TenantMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// RequireTenant validates the {tenant_id} path parameter. Admitted tenants
// are stored in the context and tagged on the active span; anything else is
// answered with invalid_tenant before a handler runs.
func (m *TenantMiddleware) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenant_id")
		if err := m.validator.Validate(tenantID); err != nil {
			handlers.HandleServiceError(w, r, err, m.logger)
			return
		}

		if span := opentracing.SpanFromContext(r.Context()); span != nil {
			span.SetTag("tenant.id", tenantID)
		}
		next.ServeHTTP(w, r.WithContext(shared.WithTenantID(r.Context(), tenantID)))
	})
}
