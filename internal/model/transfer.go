package model

import (
	"time"

	"github.com/google/uuid"
)

// Transfer records the committed factory-decrement + location-increment pair
// for one reservation. The unique index on RequestID is what enforces the
// single-commit guarantee at the storage layer: a second commit attempt for
// the same request cannot insert a second row.
type Transfer struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RequestID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ReservationID      uuid.UUID `gorm:"type:uuid;not null"`
	ProductID          uuid.UUID `gorm:"type:uuid;not null;index"`
	LocationID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount             int       `gorm:"not null"`
	FactoryStockAfter  int       `gorm:"not null"`
	LocationStockAfter int       `gorm:"not null"`
	CommittedAt        time.Time
}
