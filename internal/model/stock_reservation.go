package model

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus tracks what happened to a reservation's earmarked amount.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationReleased  ReservationStatus = "released"
	ReservationCommitted ReservationStatus = "committed"
)

// StockReservation earmarks part of a product's factory pool for one approved
// request. Available stock = total_stock − Σ(amount) over active rows.
// The unique index on RequestID means a request can hold at most one
// reservation in its lifetime.
type StockReservation struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RequestID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex"`
	ProductID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Amount    int               `gorm:"not null"`
	Status    ReservationStatus `gorm:"not null;default:'active';index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
