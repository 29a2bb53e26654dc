package model

import (
	"time"

	"github.com/google/uuid"
)

// LocationStock tracks how many units of a product a location currently holds.
// One row per (location, product) pair; created lazily on the first transfer.
// MinStock, when set, overrides Product.MinStockLevel for low-stock alerting.
type LocationStock struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LocationID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uni_location_product"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uni_location_product"`
	CurrentStock  int       `gorm:"not null;default:0;check:current_stock >= 0"`
	MinStock      *int
	LastRestockAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Location *Location `gorm:"foreignKey:LocationID"`
	Product  *Product  `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization (location_stocks → location_stock).
func (LocationStock) TableName() string { return "location_stock" }
