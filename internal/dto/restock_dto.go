package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateRestockRequest struct {
	LocationID string `json:"location_id" validate:"required,uuid"`
	ProductID  string `json:"product_id"  validate:"required,uuid"`
	Amount     int    `json:"amount"      validate:"required,gt=0"`
	Note       string `json:"note"        validate:"omitempty,max=500"`
}

// ApproveRestockRequest optionally lowers the granted amount. When Amount is
// nil the full requested amount is approved.
type ApproveRestockRequest struct {
	Amount *int `json:"amount" validate:"omitempty,gt=0"`
}

type RejectRestockRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type CancelRestockRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// RestockFilter narrows listings. Hidden requests only show up when
// IncludeHidden is set, which the router restricts to admins.
type RestockFilter struct {
	LocationID    string `form:"location_id" validate:"omitempty,uuid"`
	ProductID     string `form:"product_id"  validate:"omitempty,uuid"`
	Status        string `form:"status"      validate:"omitempty,oneof=pending approved rejected fulfilled cancelled"`
	IncludeHidden bool   `form:"include_hidden"`
	Page          int    `form:"page"        validate:"omitempty,gte=1"`
	Limit         int    `form:"limit"       validate:"omitempty,gte=1,lte=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RestockResponse struct {
	ID              string  `json:"id"`
	LocationID      string  `json:"location_id"`
	LocationName    string  `json:"location_name,omitempty"`
	ProductID       string  `json:"product_id"`
	ProductName     string  `json:"product_name,omitempty"`
	RequestedAmount int     `json:"requested_amount"`
	ApprovedAmount  *int    `json:"approved_amount,omitempty"`
	Status          string  `json:"status"`
	Note            string  `json:"note,omitempty"`
	Hidden          bool    `json:"hidden"`
	CreatedAt       string  `json:"created_at"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	FulfilledAt     *string `json:"fulfilled_at,omitempty"`
}

type RestockListResponse struct {
	Data  []RestockResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type TransferResponse struct {
	ID                 string `json:"id"`
	RequestID          string `json:"request_id"`
	ProductID          string `json:"product_id"`
	LocationID         string `json:"location_id"`
	Amount             int    `json:"amount"`
	FactoryStockAfter  int    `json:"factory_stock_after"`
	LocationStockAfter int    `json:"location_stock_after"`
	CommittedAt        string `json:"committed_at"`
}
