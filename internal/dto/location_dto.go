package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateLocationRequest struct {
	Name    string  `json:"name"    validate:"required,min=1,max=200"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

type UpdateLocationRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=1,max=200"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Active  *bool   `json:"active"`
}

// UpdateStockMinRequest overrides the low-stock threshold for one
// (location, product) record. A null min_stock falls back to the
// product-level default.
type UpdateStockMinRequest struct {
	MinStock *int `json:"min_stock" validate:"omitempty,gte=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LocationResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
	Active  bool    `json:"active"`
}

type LocationStockResponse struct {
	ID            string  `json:"id"`
	LocationID    string  `json:"location_id"`
	LocationName  string  `json:"location_name,omitempty"`
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name,omitempty"`
	SKU           string  `json:"sku,omitempty"`
	CurrentStock  int     `json:"current_stock"`
	MinStock      *int    `json:"min_stock,omitempty"`
	Threshold     int     `json:"threshold"`
	LastRestockAt *string `json:"last_restock_at,omitempty"`
}
