// Package items implements the tenant-scoped record operations.
package items

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/internal/observability"
	"github.com/upb/observability-demo-api/models"
	"github.com/upb/observability-demo-api/repositories"
	"github.com/upb/observability-demo-api/services"
)

// TenantValidator gates every tenant-scoped operation.
type TenantValidator interface {
	Validate(tenantID string) error
}

// Service applies business rules on top of the item repository
type Service struct {
	repo      repositories.ItemRepository
	validator TenantValidator
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewService creates a new items Service instance. metrics may be nil.
func NewService(repo repositories.ItemRepository, validator TenantValidator, metrics *observability.Metrics, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *Service) startSpan(ctx context.Context, op, tenantID string) (opentracing.Span, context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "items.service."+op)
	span.SetTag("tenant.id", tenantID)
	return span, ctx
}

// GetItems lists the tenant's items, newest first
func (s *Service) GetItems(ctx context.Context, tenantID string) ([]*models.Item, error) {
	if err := s.validator.Validate(tenantID); err != nil {
		return nil, err
	}

	span, ctx := s.startSpan(ctx, "GetItems", tenantID)
	defer span.Finish()

	items, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, services.WrapUnexpected("failed to list items", err)
	}

	span.SetTag("items.count", len(items))
	observability.WithRequest(ctx, s.logger).Info("items retrieved", zap.Int("count", len(items)))
	return items, nil
}

// GetItemByID returns the item or an item_not_found error
func (s *Service) GetItemByID(ctx context.Context, tenantID string, id int64) (*models.Item, error) {
	if err := s.validator.Validate(tenantID); err != nil {
		return nil, err
	}

	span, ctx := s.startSpan(ctx, "GetItemByID", tenantID)
	defer span.Finish()
	span.SetTag("item.id", id)

	item, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, services.WrapUnexpected("failed to get item", err)
	}
	if item == nil {
		return nil, services.NewNotFoundError(fmt.Sprintf("Item %d not found for tenant %s", id, tenantID))
	}

	return item, nil
}

// CreateItem validates the name and persists a new item. The stored name is
// the input as given; trimming only applies to the emptiness check.
func (s *Service) CreateItem(ctx context.Context, tenantID, name string, description *string) (*models.Item, error) {
	if err := s.validator.Validate(tenantID); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	span, ctx := s.startSpan(ctx, "CreateItem", tenantID)
	defer span.Finish()

	item, err := s.repo.Create(ctx, tenantID, name, description)
	if err != nil {
		return nil, services.WrapUnexpected("failed to create item", err)
	}

	span.SetTag("item.id", item.ID)
	if s.metrics != nil {
		s.metrics.ItemsCreated.WithLabelValues(tenantID).Inc()
	}
	observability.WithRequest(ctx, s.logger).Info("item created", zap.Int64("item_id", item.ID))
	return item, nil
}

// DeleteItem reports whether the tenant's item was removed
func (s *Service) DeleteItem(ctx context.Context, tenantID string, id int64) (bool, error) {
	if err := s.validator.Validate(tenantID); err != nil {
		return false, err
	}

	span, ctx := s.startSpan(ctx, "DeleteItem", tenantID)
	defer span.Finish()
	span.SetTag("item.id", id)

	deleted, err := s.repo.Delete(ctx, tenantID, id)
	if err != nil {
		return false, services.WrapUnexpected("failed to delete item", err)
	}

	if deleted {
		observability.WithRequest(ctx, s.logger).Info("item deleted", zap.Int64("item_id", id))
	}
	return deleted, nil
}

// CountItems returns how many items the tenant owns
func (s *Service) CountItems(ctx context.Context, tenantID string) (int64, error) {
	if err := s.validator.Validate(tenantID); err != nil {
		return 0, err
	}

	span, ctx := s.startSpan(ctx, "CountItems", tenantID)
	defer span.Finish()

	count, err := s.repo.CountByTenant(ctx, tenantID)
	if err != nil {
		return 0, services.WrapUnexpected("failed to count items", err)
	}
	return count, nil
}

// ValidateName enforces a non-blank name of at most MaxItemNameLength characters.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return services.NewValidationError("Name cannot be empty")
	}
	if utf8.RuneCountInString(name) > models.MaxItemNameLength {
		return services.NewValidationError(fmt.Sprintf("Name must be %d characters or less", models.MaxItemNameLength))
	}
	return nil
}
