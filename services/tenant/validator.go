// Package tenant validates tenant identifiers against the configured allowlist.
package tenant

import (
	"fmt"
	"strings"

	"github.com/upb/observability-demo-api/services"
)

// Validator is a pure membership test over an immutable allowlist.
// It is safe for concurrent use.
type Validator struct {
	tenants []string
	set     map[string]struct{}
}

// NewValidator creates a validator for allowlist. The slice is copied.
func NewValidator(allowlist []string) *Validator {
	v := &Validator{
		tenants: make([]string, len(allowlist)),
		set:     make(map[string]struct{}, len(allowlist)),
	}
	copy(v.tenants, allowlist)
	for _, t := range allowlist {
		v.set[t] = struct{}{}
	}
	return v
}

// Validate returns an invalid_tenant error when tenantID is blank or not in
// the allowlist. The comparison is exact; no trimming or case folding.
func (v *Validator) Validate(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return services.NewInvalidTenantError("Tenant ID cannot be empty")
	}
	if _, ok := v.set[tenantID]; !ok {
		return services.NewInvalidTenantError(fmt.Sprintf(
			"Invalid tenant ID: %s. Valid tenants: %s",
			tenantID, strings.Join(v.tenants, ", "),
		))
	}
	return nil
}

// IsValid reports whether Validate would succeed.
func (v *Validator) IsValid(tenantID string) bool {
	return v.Validate(tenantID) == nil
}

// Tenants returns a copy of the allowlist in configured order.
func (v *Validator) Tenants() []string {
	out := make([]string, len(v.tenants))
	copy(out, v.tenants)
	return out
}
