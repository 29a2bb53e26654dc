package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a factory-produced item. TotalStock is the centrally held
// production pool that restock requests draw from; it is never written
// directly by handlers — only through guarded ledger updates.
type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU           string    `gorm:"uniqueIndex;not null"`
	Name          string    `gorm:"index;not null"`
	Description   *string
	TotalStock    int `gorm:"not null;default:0;check:total_stock >= 0"`
	MinStockLevel int `gorm:"not null;default:5"`
	// UnitCost feeds inventory valuation reports only — never stock arithmetic.
	UnitCost  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Active    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
