package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/observability-demo-api/models"
	"github.com/upb/observability-demo-api/repositories/postgres"
	"github.com/upb/observability-demo-api/services/items"
)

var (
	listItemsSQL  = regexp.QuoteMeta("SELECT id, tenant_id, name, description, created_at, updated_at FROM items WHERE tenant_id = $1 ORDER BY created_at DESC, id DESC")
	findItemSQL   = regexp.QuoteMeta("SELECT id, tenant_id, name, description, created_at, updated_at FROM items WHERE tenant_id = $1 AND id = $2")
	insertItemSQL = regexp.QuoteMeta("INSERT INTO items (tenant_id,name,description,created_at,updated_at) VALUES ($1,$2,$3,$4,$5) RETURNING id, tenant_id, name, description, created_at, updated_at")
	deleteItemSQL = regexp.QuoteMeta("DELETE FROM items WHERE tenant_id = $1 AND id = $2")
	countItemsSQL = regexp.QuoteMeta("SELECT COUNT(*) FROM items WHERE tenant_id = $1")
)

func newItemHandler(env *testEnv) *ItemHandler {
	repo := postgres.NewItemRepository(env.db, env.clock, env.logger)
	return NewItemHandler(items.NewService(repo, env.validator, env.metrics, env.logger), env.logger)
}

func itemColumns() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "name", "description", "created_at", "updated_at"})
}

func TestItemHandler_HandleList(t *testing.T) {
	t.Run("returns bare array newest first", func(t *testing.T) {
		env := newTestEnv(t)
		newer := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
		older := newer.Add(-time.Hour)
		env.mock.ExpectQuery(listItemsSQL).WithArgs("tenant-a").WillReturnRows(itemColumns().
			AddRow(2, "tenant-a", "second", nil, newer, newer).
			AddRow(1, "tenant-a", "first", "desc", older, older))

		w := serve(http.MethodGet, "/{tenant_id}/items", newItemHandler(env).HandleList, "/tenant-a/items", "")

		assert.Equal(t, http.StatusOK, w.Code)

		var body []map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Len(t, body, 2)
		assert.Equal(t, float64(2), body[0]["id"])
		assert.Nil(t, body[0]["description"])
		assert.Equal(t, "2024-06-01T11:00:00.000000Z", body[0]["created_at"])
		assert.Equal(t, "desc", body[1]["description"])
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("empty tenant list is an empty array", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectQuery(listItemsSQL).WithArgs("tenant-c").WillReturnRows(itemColumns())

		w := serve(http.MethodGet, "/{tenant_id}/items", newItemHandler(env).HandleList, "/tenant-c/items", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	})

	t.Run("invalid tenant", func(t *testing.T) {
		env := newTestEnv(t)

		w := serve(http.MethodGet, "/{tenant_id}/items", newItemHandler(env).HandleList, "/nobody/items", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_tenant", decodeError(t, w).ErrorType)
	})

	t.Run("database failure is unexpected", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectQuery(listItemsSQL).WithArgs("tenant-a").WillReturnError(errors.New("pq: too many connections"))

		w := serve(http.MethodGet, "/{tenant_id}/items", newItemHandler(env).HandleList, "/tenant-a/items", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "unexpected_error", resp.ErrorType)
		assert.Equal(t, UnexpectedErrorMessage, resp.Message)
		assert.NotContains(t, w.Body.String(), "too many connections")
	})
}

func TestItemHandler_HandleCreate(t *testing.T) {
	const pattern = "/{tenant_id}/items"

	t.Run("creates item", func(t *testing.T) {
		env := newTestEnv(t)
		now := env.clock.Now()
		env.mock.ExpectQuery(insertItemSQL).
			WithArgs("tenant-b", "Widget", "blue", now, now).
			WillReturnRows(itemColumns().AddRow(7, "tenant-b", "Widget", "blue", now, now))

		w := serve(http.MethodPost, pattern, newItemHandler(env).HandleCreate, "/tenant-b/items",
			`{"name":"Widget","description":"blue"}`)

		assert.Equal(t, http.StatusCreated, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, float64(7), body["id"])
		assert.Equal(t, "tenant-b", body["tenant_id"])
		assert.Equal(t, "Widget", body["name"])
		assert.Equal(t, body["created_at"], body["updated_at"])
		assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ItemsCreated.WithLabelValues("tenant-b")))
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	tests := []struct {
		name         string
		target       string
		body         string
		expectedType string
	}{
		{"missing body", "/tenant-a/items", "", "request_error"},
		{"malformed json", "/tenant-a/items", `{"name":`, "request_error"},
		{"missing name", "/tenant-a/items", `{"description":"x"}`, "request_error"},
		{"wrong name type", "/tenant-a/items", `{"name":42}`, "request_error"},
		{"blank name", "/tenant-a/items", `{"name":"   "}`, "validation_error"},
		{"name too long", "/tenant-a/items", `{"name":"` + strings.Repeat("n", models.MaxItemNameLength+1) + `"}`, "validation_error"},
		{"invalid tenant", "/tenant-z/items", `{"name":"ok"}`, "invalid_tenant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			w := serve(http.MethodPost, pattern, newItemHandler(env).HandleCreate, tt.target, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.expectedType, decodeError(t, w).ErrorType)
			assert.NoError(t, env.mock.ExpectationsWereMet())
		})
	}
}

func TestItemHandler_HandleGet(t *testing.T) {
	const pattern = "/{tenant_id}/items/{id}"

	t.Run("found", func(t *testing.T) {
		env := newTestEnv(t)
		now := env.clock.Now()
		env.mock.ExpectQuery(findItemSQL).WithArgs("tenant-a", int64(3)).
			WillReturnRows(itemColumns().AddRow(3, "tenant-a", "thing", nil, now, now))

		w := serve(http.MethodGet, pattern, newItemHandler(env).HandleGet, "/tenant-a/items/3", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "thing", body["name"])
	})

	t.Run("other tenant's item is not found", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectQuery(findItemSQL).WithArgs("tenant-b", int64(3)).WillReturnRows(itemColumns())

		w := serve(http.MethodGet, pattern, newItemHandler(env).HandleGet, "/tenant-b/items/3", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "item_not_found", resp.ErrorType)
		assert.Equal(t, "Item 3 not found for tenant tenant-b", resp.Message)
	})

	t.Run("non-integer id", func(t *testing.T) {
		env := newTestEnv(t)

		w := serve(http.MethodGet, pattern, newItemHandler(env).HandleGet, "/tenant-a/items/abc", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "request_error", decodeError(t, w).ErrorType)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})
}

func TestItemHandler_HandleDelete(t *testing.T) {
	const pattern = "/{tenant_id}/items/{id}"

	t.Run("deleted", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectExec(deleteItemSQL).WithArgs("tenant-a", int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))

		w := serve(http.MethodDelete, pattern, newItemHandler(env).HandleDelete, "/tenant-a/items/5", "")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Zero(t, w.Body.Len())
	})

	t.Run("missing", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectExec(deleteItemSQL).WithArgs("tenant-a", int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))

		w := serve(http.MethodDelete, pattern, newItemHandler(env).HandleDelete, "/tenant-a/items/5", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "item_not_found", decodeError(t, w).ErrorType)
	})

	t.Run("non-integer id", func(t *testing.T) {
		env := newTestEnv(t)

		w := serve(http.MethodDelete, pattern, newItemHandler(env).HandleDelete, "/tenant-a/items/1.5", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "request_error", decodeError(t, w).ErrorType)
	})
}

func TestItemHandler_HandleCount(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(countItemsSQL).WithArgs("tenant-c").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	w := serve(http.MethodGet, "/{tenant_id}/items/count", newItemHandler(env).HandleCount, "/tenant-c/items/count", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var body models.ItemCount
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, models.ItemCount{TenantID: "tenant-c", ItemCount: 4}, body)
}
