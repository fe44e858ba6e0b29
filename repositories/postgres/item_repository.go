package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/benbjohnson/clock"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	otlog "github.com/opentracing/opentracing-go/log"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/models"
	"github.com/upb/observability-demo-api/repositories"
)

var itemsTable = models.Item{}.TableName()

var itemColumns = []string{"id", "tenant_id", "name", "description", "created_at", "updated_at"}

// psql builds statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ItemRepository implements the repositories.ItemRepository interface
type ItemRepository struct {
	db     *DB
	clock  clock.Clock
	logger *zap.Logger
}

// NewItemRepository creates a new item repository. Timestamps come from clk.
func NewItemRepository(db *DB, clk clock.Clock, logger *zap.Logger) repositories.ItemRepository {
	return &ItemRepository{
		db:     db,
		clock:  clk,
		logger: logger,
	}
}

func startSpan(ctx context.Context, op, query string) (opentracing.Span, context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "items.repository."+op)
	ext.DBType.Set(span, "postgresql")
	ext.DBStatement.Set(span, query)
	ext.SpanKindRPCClient.Set(span)
	return span, ctx
}

func finishSpan(span opentracing.Span, err error) {
	if err != nil {
		ext.Error.Set(span, true)
		span.LogFields(otlog.Error(err))
	}
	span.Finish()
}

// ListByTenant retrieves all items of a tenant, newest first
func (r *ItemRepository) ListByTenant(ctx context.Context, tenantID string) (items []*models.Item, err error) {
	query, args, err := psql.Select(itemColumns...).
		From(itemsTable).
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	span, ctx := startSpan(ctx, "ListByTenant", query)
	defer func() { finishSpan(span, err) }()

	items = make([]*models.Item, 0)
	if err = r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	span.SetTag("db.rows", len(items))
	return items, nil
}

// FindByID retrieves an item by tenant and ID
func (r *ItemRepository) FindByID(ctx context.Context, tenantID string, id int64) (_ *models.Item, err error) {
	query, args, err := psql.Select(itemColumns...).
		From(itemsTable).
		Where(sq.Eq{"tenant_id": tenantID}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find query: %w", err)
	}

	span, ctx := startSpan(ctx, "FindByID", query)
	defer func() { finishSpan(span, err) }()

	item := &models.Item{}
	if err = r.db.GetContext(ctx, item, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = nil
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// Create inserts a new item; created_at and updated_at are set to the same instant
func (r *ItemRepository) Create(ctx context.Context, tenantID, name string, description *string) (_ *models.Item, err error) {
	item := models.NewItem(tenantID, name, description, r.clock.Now())

	query, args, err := psql.Insert(itemsTable).
		Columns("tenant_id", "name", "description", "created_at", "updated_at").
		Values(item.TenantID, item.Name, item.Description, item.CreatedAt, item.UpdatedAt).
		Suffix("RETURNING id, tenant_id, name, description, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	span, ctx := startSpan(ctx, "Create", query)
	defer func() { finishSpan(span, err) }()

	created := &models.Item{}
	if err = r.db.GetContext(ctx, created, query, args...); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	r.logger.Debug("item created", zap.Int64("id", created.ID), zap.String("tenant_id", tenantID))
	return created, nil
}

// Delete removes an item by tenant and ID
func (r *ItemRepository) Delete(ctx context.Context, tenantID string, id int64) (_ bool, err error) {
	query, args, err := psql.Delete(itemsTable).
		Where(sq.Eq{"tenant_id": tenantID}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete query: %w", err)
	}

	span, ctx := startSpan(ctx, "Delete", query)
	defer func() { finishSpan(span, err) }()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete item: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows > 0 {
		r.logger.Debug("item deleted", zap.Int64("id", id), zap.String("tenant_id", tenantID))
	}
	return rows > 0, nil
}

// CountByTenant counts the items of a tenant
func (r *ItemRepository) CountByTenant(ctx context.Context, tenantID string) (_ int64, err error) {
	query, args, err := psql.Select("COUNT(*)").
		From(itemsTable).
		Where(sq.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	span, ctx := startSpan(ctx, "CountByTenant", query)
	defer func() { finishSpan(span, err) }()

	var count int64
	if err = r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// ProbeTenant runs SELECT 1 ... LIMIT 1 scoped to the tenant
func (r *ItemRepository) ProbeTenant(ctx context.Context, tenantID string) (err error) {
	query, args, err := psql.Select("1").
		From(itemsTable).
		Where(sq.Eq{"tenant_id": tenantID}).
		Limit(1).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build probe query: %w", err)
	}

	span, ctx := startSpan(ctx, "ProbeTenant", query)
	defer func() { finishSpan(span, err) }()

	var one int
	if err = r.db.GetContext(ctx, &one, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = nil
			return nil
		}
		return fmt.Errorf("tenant probe failed: %w", err)
	}
	return nil
}
