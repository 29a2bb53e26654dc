package dto

// ─── Response DTOs ───────────────────────────────────────────────────────────

// LowStockAlertResponse is one row of the low-stock report: a location
// record at or below its effective threshold.
type LowStockAlertResponse struct {
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	SKU          string `json:"sku"`
	CurrentStock int    `json:"current_stock"`
	Threshold    int    `json:"threshold"`
}

type StockMovementResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	LocationID  *string `json:"location_id,omitempty"`
	Type        string  `json:"type"`
	Quantity    int     `json:"quantity"`
	StockBefore int     `json:"stock_before"`
	StockAfter  int     `json:"stock_after"`
	Reason      string  `json:"reason,omitempty"`
	ReferenceID *string `json:"reference_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// ValuationLine prices one product's factory pool at its unit cost.
type ValuationLine struct {
	ProductID  string `json:"product_id"`
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	TotalStock int    `json:"total_stock"`
	UnitCost   string `json:"unit_cost"`
	Value      string `json:"value"`
}

type ValuationResponse struct {
	Lines      []ValuationLine `json:"lines"`
	TotalValue string          `json:"total_value"`
	AsOf       string          `json:"as_of"`
}
