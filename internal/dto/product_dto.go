package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	SKU           string  `json:"sku"             validate:"required,min=1,max=64"`
	Name          string  `json:"name"            validate:"required,min=1,max=200"`
	Description   *string `json:"description"     validate:"omitempty,max=1000"`
	MinStockLevel *int    `json:"min_stock_level" validate:"omitempty,gte=0"`
	UnitCost      *string `json:"unit_cost"       validate:"omitempty"`
}

type UpdateProductRequest struct {
	Name          *string `json:"name"            validate:"omitempty,min=1,max=200"`
	Description   *string `json:"description"     validate:"omitempty,max=1000"`
	MinStockLevel *int    `json:"min_stock_level" validate:"omitempty,gte=0"`
	UnitCost      *string `json:"unit_cost"       validate:"omitempty"`
	Active        *bool   `json:"active"`
}

// AddStockRequest credits produced units to the factory pool.
type AddStockRequest struct {
	Amount int    `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// ProductFilter narrows product listings. Active takes "false" for inactive
// only or "all" for everything; anything else means active only.
type ProductFilter struct {
	SKU    string `form:"sku"    validate:"omitempty,max=64"`
	Name   string `form:"name"   validate:"omitempty,max=200"`
	Active string `form:"active" validate:"omitempty,oneof=true false all"`
	Page   int    `form:"page"   validate:"omitempty,gte=1"`
	Limit  int    `form:"limit"  validate:"omitempty,gte=1,lte=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID             string  `json:"id"`
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	TotalStock     int     `json:"total_stock"`
	AvailableStock *int    `json:"available_stock,omitempty"`
	MinStockLevel  int     `json:"min_stock_level"`
	UnitCost       string  `json:"unit_cost"`
	Active         bool    `json:"active"`
}
