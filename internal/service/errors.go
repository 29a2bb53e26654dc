// Package service contains the business core: the stock ledger, the restock
// request lifecycle, and the read models built on top of them. Handlers map
// the error taxonomy below onto HTTP status codes; nothing in this package
// knows about transports.
package service

import (
	"errors"
	"fmt"

	"stockroom/internal/model"

	"github.com/google/uuid"
)

// ErrConcurrencyConflict signals that a guarded update lost a race and the
// enclosing transaction should be retried. The ledger retries internally
// with bounded attempts; it only escapes once those are exhausted.
var ErrConcurrencyConflict = errors.New("concurrent update conflict")

// ValidationError covers malformed amounts and identifiers.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// NotFoundError identifies an unknown request, product, location or reservation.
type NotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// StateError reports an illegal lifecycle transition. The request (and both
// stock counters) are guaranteed untouched when one is returned.
type StateError struct {
	RequestID uuid.UUID
	From      model.RestockStatus
	To        model.RestockStatus
	Msg       string
}

func (e *StateError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("request %s: illegal transition %s to %s", e.RequestID, e.From, e.To)
}

// InsufficientStockError is a business-level rejection, not a system fault.
// Available reports what the caller could still reserve right now.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
