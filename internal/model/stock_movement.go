package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovement records every change to a stock counter.
// Factory-side rows have LocationID nil; location-side rows carry it.
type StockMovement struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	LocationID  *uuid.UUID `gorm:"type:uuid;index"`
	Type        string     `gorm:"not null"` // "production" | "transfer_out" | "transfer_in" | "adjustment"
	Quantity    int        `gorm:"not null"` // positive = in, negative = out
	StockBefore int        `gorm:"not null"`
	StockAfter  int        `gorm:"not null"`
	Reason      string
	ReferenceID *uuid.UUID `gorm:"type:uuid"` // request id or transfer id when applicable
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
