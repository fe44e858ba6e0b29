package repositories

import (
	"context"

	"github.com/upb/observability-demo-api/models"
)

// ItemRepository handles tenant-scoped item persistence. Every method filters
// by tenantID; a row owned by another tenant is indistinguishable from a
// missing row.
type ItemRepository interface {
	// ListByTenant returns the tenant's items, newest first. Never nil.
	ListByTenant(ctx context.Context, tenantID string) ([]*models.Item, error)

	// FindByID returns (nil, nil) when no row matches both tenant and id.
	FindByID(ctx context.Context, tenantID string, id int64) (*models.Item, error)

	// Create inserts an item and returns its persisted form.
	Create(ctx context.Context, tenantID, name string, description *string) (*models.Item, error)

	// Delete reports whether a matching row was removed.
	Delete(ctx context.Context, tenantID string, id int64) (bool, error)

	// CountByTenant returns the number of items the tenant owns.
	CountByTenant(ctx context.Context, tenantID string) (int64, error)

	// ProbeTenant runs a lightweight tenant-scoped read. No rows is success.
	ProbeTenant(ctx context.Context, tenantID string) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Items ItemRepository
}
