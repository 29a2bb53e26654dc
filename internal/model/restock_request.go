package model

import (
	"time"

	"github.com/google/uuid"
)

// RestockStatus is the lifecycle state of a RestockRequest.
type RestockStatus string

const (
	StatusPending   RestockStatus = "pending"
	StatusApproved  RestockStatus = "approved"
	StatusRejected  RestockStatus = "rejected"
	StatusFulfilled RestockStatus = "fulfilled"
	StatusCancelled RestockStatus = "cancelled"
)

// transitions is the full adjacency of the request lifecycle. Anything
// not listed here is illegal and must leave the request untouched.
var transitions = map[RestockStatus][]RestockStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusFulfilled, StatusCancelled},
}

// CanTransition reports whether from → to is a legal lifecycle step.
func CanTransition(from, to RestockStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s RestockStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is a known lifecycle state.
func (s RestockStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

// RestockRequest asks for a quantity of factory stock to be transferred to a
// location. Hidden is a soft-delete flag, orthogonal to Status: a hidden
// request keeps its full history but is excluded from default listings.
type RestockRequest struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LocationID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null;index"`
	RequestedAmount int       `gorm:"not null"`
	ApprovedAmount  *int
	Status          RestockStatus `gorm:"not null;default:'pending';index"`
	Note            string
	Hidden          bool `gorm:"not null;default:false"`
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
	ApprovedAt      *time.Time
	FulfilledAt     *time.Time
	UpdatedAt       time.Time

	Location *Location `gorm:"foreignKey:LocationID"`
	Product  *Product  `gorm:"foreignKey:ProductID"`
}
