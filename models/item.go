package models

import (
	"encoding/json"
	"time"

	"github.com/upb/observability-demo-api/utils"
)

// MaxItemNameLength is the maximum name length in characters (Unicode code points).
const MaxItemNameLength = 100

// Item is a tenant-scoped demo record. Every item belongs to exactly one tenant.
type Item struct {
	ID          int64     `json:"id" db:"id"`
	TenantID    string    `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Item model
func (Item) TableName() string {
	return "items"
}

// NewItem creates an unsaved item with both timestamps set to now in UTC.
func NewItem(tenantID, name string, description *string, now time.Time) *Item {
	now = now.UTC()
	return &Item{
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarshalJSON renders timestamps as UTC ISO-8601 with a trailing Z.
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          int64   `json:"id"`
		TenantID    string  `json:"tenant_id"`
		Name        string  `json:"name"`
		Description *string `json:"description"`
		CreatedAt   string  `json:"created_at"`
		UpdatedAt   string  `json:"updated_at"`
	}{
		ID:          i.ID,
		TenantID:    i.TenantID,
		Name:        i.Name,
		Description: i.Description,
		CreatedAt:   utils.FormatTimestamp(i.CreatedAt),
		UpdatedAt:   utils.FormatTimestamp(i.UpdatedAt),
	})
}

// ItemCount is the per-tenant record count.
type ItemCount struct {
	TenantID  string `json:"tenant_id"`
	ItemCount int64  `json:"item_count"`
}
