package service

import (
	"context"
	"errors"
	"time"

	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockLedger owns the two stock counters. All mutations run inside a single
// database transaction with the product row locked, so a reserve, release or
// commit on one product can never interleave its check with another writer.
// Operations on different products do not contend.
type StockLedger interface {
	// Reserve earmarks amount units of factory stock for a request.
	// Fails with InsufficientStockError when available < amount, where
	// available = total_stock minus the sum of active reservations.
	Reserve(ctx context.Context, requestID, productID uuid.UUID, amount int) (uuid.UUID, error)

	// ReserveTx is Reserve inside a caller-owned transaction, so the
	// reservation and the caller's own guarded writes commit or roll back
	// as one unit. A released row for the same request is revived in place;
	// an active or committed one rejects the reserve.
	ReserveTx(tx *gorm.DB, requestID, productID uuid.UUID, amount int) (uuid.UUID, error)

	// Release frees a reservation without touching total_stock.
	// Releasing an already released reservation is a no-op.
	Release(ctx context.Context, reservationID uuid.UUID) error

	// ReleaseTx is Release inside a caller-owned transaction.
	ReleaseTx(tx *gorm.DB, reservationID uuid.UUID) error

	// CommitTransfer moves the reserved amount out of the factory pool and
	// into the location record, exactly once. Calling it again for a
	// committed reservation returns the originally recorded transfer.
	CommitTransfer(ctx context.Context, reservationID, locationID uuid.UUID) (*model.Transfer, error)

	// AddProduction credits produced units to the factory pool.
	AddProduction(ctx context.Context, productID uuid.UUID, amount int, reason string) (*model.Product, error)

	// Available returns total_stock minus active reservations for a product.
	Available(ctx context.Context, productID uuid.UUID) (int, error)
}

type stockLedger struct {
	products     repository.ProductRepository
	locations    repository.LocationRepository
	reservations repository.ReservationRepository
	transfers    repository.TransferRepository
	movements    repository.StockMovementRepository
}

func NewStockLedger(
	products repository.ProductRepository,
	locations repository.LocationRepository,
	reservations repository.ReservationRepository,
	transfers repository.TransferRepository,
	movements repository.StockMovementRepository,
) StockLedger {
	return &stockLedger{
		products:     products,
		locations:    locations,
		reservations: reservations,
		transfers:    transfers,
		movements:    movements,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

const (
	maxTxAttempts  = 3
	retryBaseDelay = 25 * time.Millisecond
)

// retryTx re-runs fn in a fresh transaction when a guarded update lost a
// race. Attempts are bounded with exponential backoff; anything other than
// ErrConcurrencyConflict surfaces immediately.
func retryTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBaseDelay << (attempt - 1)):
			}
		}
		err = runTx(ctx, db, fn)
		if !errors.Is(err, ErrConcurrencyConflict) {
			return err
		}
	}
	return err
}

// ── Reserve ──────────────────────────────────────────────────────────────────

func (l *stockLedger) Reserve(ctx context.Context, requestID, productID uuid.UUID, amount int) (uuid.UUID, error) {
	var reservationID uuid.UUID
	err := retryTx(ctx, l.products.DB(), func(tx *gorm.DB) error {
		id, err := l.ReserveTx(tx, requestID, productID, amount)
		if err != nil {
			return err
		}
		reservationID = id
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return reservationID, nil
}

func (l *stockLedger) ReserveTx(tx *gorm.DB, requestID, productID uuid.UUID, amount int) (uuid.UUID, error) {
	if amount <= 0 {
		return uuid.Nil, &ValidationError{Field: "amount", Msg: "must be greater than zero"}
	}

	p, err := l.products.LockByIDTx(tx, productID)
	if err != nil {
		return uuid.Nil, asNotFound("product", productID, err)
	}

	reserved, err := l.reservations.SumActiveByProductTx(tx, productID)
	if err != nil {
		return uuid.Nil, err
	}
	available := p.TotalStock - reserved
	if available < amount {
		return uuid.Nil, &InsufficientStockError{ProductID: productID, Requested: amount, Available: available}
	}

	// One reservation per request, enforced by the unique index on
	// request_id. A released row is revived in place; anything newer
	// means another approval already claimed this request.
	existing, err := l.reservations.FindByRequestIDTx(tx, requestID)
	switch {
	case err == nil:
		if existing.Status != model.ReservationReleased {
			return uuid.Nil, &StateError{Msg: "request already holds a reservation"}
		}
		ok, err := l.reservations.ReactivateTx(tx, existing.ID, amount)
		if err != nil {
			return uuid.Nil, err
		}
		if !ok {
			return uuid.Nil, ErrConcurrencyConflict
		}
		return existing.ID, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return uuid.Nil, err
	}

	res := &model.StockReservation{
		RequestID: requestID,
		ProductID: productID,
		Amount:    amount,
		Status:    model.ReservationActive,
	}
	if err := l.reservations.CreateTx(tx, res); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent reserve inserted first; the retry re-reads it.
			return uuid.Nil, ErrConcurrencyConflict
		}
		return uuid.Nil, err
	}
	return res.ID, nil
}

// ── Release ──────────────────────────────────────────────────────────────────

func (l *stockLedger) Release(ctx context.Context, reservationID uuid.UUID) error {
	return retryTx(ctx, l.products.DB(), func(tx *gorm.DB) error {
		return l.ReleaseTx(tx, reservationID)
	})
}

func (l *stockLedger) ReleaseTx(tx *gorm.DB, reservationID uuid.UUID) error {
	res, err := l.reservations.FindByIDTx(tx, reservationID)
	if err != nil {
		return asNotFound("reservation", reservationID, err)
	}
	switch res.Status {
	case model.ReservationReleased:
		return nil
	case model.ReservationCommitted:
		return &StateError{Msg: "reservation already committed, cannot release"}
	}

	ok, err := l.reservations.MarkStatusGuardedTx(tx, reservationID, model.ReservationActive, model.ReservationReleased)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConcurrencyConflict
	}
	return nil
}

// ── CommitTransfer ───────────────────────────────────────────────────────────

func (l *stockLedger) CommitTransfer(ctx context.Context, reservationID, locationID uuid.UUID) (*model.Transfer, error) {
	var out *model.Transfer
	err := retryTx(ctx, l.products.DB(), func(tx *gorm.DB) error {
		res, err := l.reservations.FindByIDTx(tx, reservationID)
		if err != nil {
			return asNotFound("reservation", reservationID, err)
		}

		switch res.Status {
		case model.ReservationReleased:
			return &StateError{Msg: "reservation was released, cannot commit"}
		case model.ReservationCommitted:
			// Idempotent replay: hand back the transfer recorded by the
			// first commit, with no counter touched.
			t, err := l.transfers.FindByRequestIDTx(tx, res.RequestID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// The winning commit has not landed yet; retry.
				return ErrConcurrencyConflict
			}
			if err != nil {
				return err
			}
			out = t
			return nil
		}

		// Lock the product row first so the commit serializes with any
		// concurrent Reserve on the same product.
		p, err := l.products.LockByIDTx(tx, res.ProductID)
		if err != nil {
			return asNotFound("product", res.ProductID, err)
		}

		ok, err := l.reservations.MarkStatusGuardedTx(tx, reservationID, model.ReservationActive, model.ReservationCommitted)
		if err != nil {
			return err
		}
		if !ok {
			// Another commit or release won the race. Retry re-reads the
			// reservation and resolves via the status switch above.
			return ErrConcurrencyConflict
		}

		ok, err = l.products.DecrementStockGuardedTx(tx, res.ProductID, res.Amount)
		if err != nil {
			return err
		}
		if !ok {
			// The reservation invariant makes this unreachable; treat it
			// as a hard business rejection rather than corrupting counters.
			return &InsufficientStockError{ProductID: res.ProductID, Requested: res.Amount, Available: p.TotalStock}
		}

		ls, err := l.locations.GetOrCreateStockTx(tx, locationID, res.ProductID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := l.locations.IncrementStockTx(tx, ls.ID, res.Amount, now); err != nil {
			return err
		}

		t := &model.Transfer{
			RequestID:          res.RequestID,
			ReservationID:      res.ID,
			ProductID:          res.ProductID,
			LocationID:         locationID,
			Amount:             res.Amount,
			FactoryStockAfter:  p.TotalStock - res.Amount,
			LocationStockAfter: ls.CurrentStock + res.Amount,
			CommittedAt:        now,
		}
		if err := l.transfers.CreateTx(tx, t); err != nil {
			return err
		}

		ref := res.RequestID
		if err := l.movements.CreateTx(tx, &model.StockMovement{
			ProductID:   res.ProductID,
			Type:        "transfer_out",
			Quantity:    -res.Amount,
			StockBefore: p.TotalStock,
			StockAfter:  p.TotalStock - res.Amount,
			Reason:      "restock transfer to location",
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
		if err := l.movements.CreateTx(tx, &model.StockMovement{
			ProductID:   res.ProductID,
			LocationID:  &locationID,
			Type:        "transfer_in",
			Quantity:    res.Amount,
			StockBefore: ls.CurrentStock,
			StockAfter:  ls.CurrentStock + res.Amount,
			Reason:      "restock transfer from factory",
			ReferenceID: &ref,
		}); err != nil {
			return err
		}

		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ── AddProduction ────────────────────────────────────────────────────────────

func (l *stockLedger) AddProduction(ctx context.Context, productID uuid.UUID, amount int, reason string) (*model.Product, error) {
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Msg: "must be greater than zero"}
	}
	if reason == "" {
		reason = "production intake"
	}

	var updated *model.Product
	err := retryTx(ctx, l.products.DB(), func(tx *gorm.DB) error {
		p, err := l.products.LockByIDTx(tx, productID)
		if err != nil {
			return asNotFound("product", productID, err)
		}
		if err := l.products.IncrementStockTx(tx, productID, amount); err != nil {
			return err
		}
		if err := l.movements.CreateTx(tx, &model.StockMovement{
			ProductID:   productID,
			Type:        "production",
			Quantity:    amount,
			StockBefore: p.TotalStock,
			StockAfter:  p.TotalStock + amount,
			Reason:      reason,
		}); err != nil {
			return err
		}
		p.TotalStock += amount
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ── Available ────────────────────────────────────────────────────────────────

func (l *stockLedger) Available(ctx context.Context, productID uuid.UUID) (int, error) {
	var available int
	err := runTx(ctx, l.products.DB(), func(tx *gorm.DB) error {
		p, err := l.products.LockByIDTx(tx, productID)
		if err != nil {
			return asNotFound("product", productID, err)
		}
		reserved, err := l.reservations.SumActiveByProductTx(tx, productID)
		if err != nil {
			return err
		}
		available = p.TotalStock - reserved
		return nil
	})
	return available, err
}

// asNotFound converts a repository miss into the taxonomy's NotFoundError,
// passing through anything that is not a missing record.
func asNotFound(kind string, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return err
}
