package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/models"
	"github.com/upb/observability-demo-api/services"
	"github.com/upb/observability-demo-api/services/items"
	"github.com/upb/observability-demo-api/utils"
)

// CreateItemRequest is the body of POST /{tenant_id}/items. Presence of name
// is checked here; its content rules belong to the items service.
type CreateItemRequest struct {
	Name        *string `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// ItemHandler handles item-related HTTP requests
type ItemHandler struct {
	items  *items.Service
	logger *zap.Logger
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(itemService *items.Service, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		items:  itemService,
		logger: logger,
	}
}

// HandleList handles GET /{tenant_id}/items
func (h *ItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.items.GetItems(r.Context(), chi.URLParam(r, "tenant_id"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	h.write(w, r, http.StatusOK, list)
}

// HandleCreate handles POST /{tenant_id}/items
func (h *ItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		if errors.Is(err, utils.ErrEmptyBody) {
			err = errors.New("request body is required")
		}
		HandleRequestError(w, r, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleRequestError(w, r, err, h.logger)
		return
	}

	item, err := h.items.CreateItem(r.Context(), chi.URLParam(r, "tenant_id"), *req.Name, req.Description)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	if err := utils.WriteCreated(w, item); err != nil {
		h.logger.Error("failed to write response", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// HandleGet handles GET /{tenant_id}/items/{id}
func (h *ItemHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseItemID(r)
	if err != nil {
		HandleRequestError(w, r, err, h.logger)
		return
	}

	item, err := h.items.GetItemByID(r.Context(), chi.URLParam(r, "tenant_id"), id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	h.write(w, r, http.StatusOK, item)
}

// HandleDelete handles DELETE /{tenant_id}/items/{id}
func (h *ItemHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseItemID(r)
	if err != nil {
		HandleRequestError(w, r, err, h.logger)
		return
	}

	tenantID := chi.URLParam(r, "tenant_id")
	deleted, err := h.items.DeleteItem(r.Context(), tenantID, id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	if !deleted {
		HandleServiceError(w, r, services.NewNotFoundError(fmt.Sprintf("Item %d not found for tenant %s", id, tenantID)), h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleCount handles GET /{tenant_id}/items/count
func (h *ItemHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	count, err := h.items.CountItems(r.Context(), tenantID)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	h.write(w, r, http.StatusOK, models.ItemCount{TenantID: tenantID, ItemCount: count})
}

func (h *ItemHandler) write(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := utils.WriteJSON(w, status, data); err != nil {
		h.logger.Error("failed to write response", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func parseItemID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid item id %q: must be an integer", raw)
	}
	return id, nil
}
