package service

import (
	"context"
	"sync"
	"testing"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger() (*memStore, StockLedger) {
	s := newMemStore()
	ledger := NewStockLedger(
		&stubProductRepo{s: s},
		&stubLocationRepo{s: s},
		&stubReservationRepo{s: s},
		&stubTransferRepo{s: s},
		&stubMovementRepo{s: s},
	)
	return s, ledger
}

func TestReserveReducesAvailability(t *testing.T) {
	s, ledger := newTestLedger()
	ctx := context.Background()
	p := s.addProduct(100)

	// Approving 30 leaves 70 available even though total_stock is untouched.
	_, err := ledger.Reserve(ctx, uuid.New(), p.ID, 30)
	require.NoError(t, err)

	available, err := ledger.Available(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, available)

	got, err := (&stubProductRepo{s: s}).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.TotalStock, "reserve must not touch total_stock")

	// A second request for 80 exceeds availability and reports what is left.
	_, err = ledger.Reserve(ctx, uuid.New(), p.ID, 80)
	var insuff *InsufficientStockError
	require.ErrorAs(t, err, &insuff)
	assert.Equal(t, 80, insuff.Requested)
	assert.Equal(t, 70, insuff.Available)
}

func TestReserveRejectsNonPositiveAmount(t *testing.T) {
	s, ledger := newTestLedger()
	p := s.addProduct(10)

	for _, amount := range []int{0, -5} {
		_, err := ledger.Reserve(context.Background(), uuid.New(), p.ID, amount)
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	}
}

func TestReserveUnknownProduct(t *testing.T) {
	_, ledger := newTestLedger()
	_, err := ledger.Reserve(context.Background(), uuid.New(), uuid.New(), 1)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "product", nf.Kind)
}

func TestCommitTransferMovesStock(t *testing.T) {
	s, ledger := newTestLedger()
	ctx := context.Background()
	p := s.addProduct(100)
	loc := s.addLocation("downtown")

	requestID := uuid.New()
	resID, err := ledger.Reserve(ctx, requestID, p.ID, 30)
	require.NoError(t, err)

	transfer, err := ledger.CommitTransfer(ctx, resID, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, transfer.Amount)
	assert.Equal(t, 70, transfer.FactoryStockAfter)
	assert.Equal(t, 30, transfer.LocationStockAfter)

	got, err := (&stubProductRepo{s: s}).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, got.TotalStock)

	ls := s.stockAt(loc.ID, p.ID)
	require.NotNil(t, ls)
	assert.Equal(t, 30, ls.CurrentStock)
	assert.NotNil(t, ls.LastRestockAt)

	// Both sides of the move are journaled.
	require.Len(t, s.movements, 2)
	assert.Equal(t, "transfer_out", s.movements[0].Type)
	assert.Equal(t, -30, s.movements[0].Quantity)
	assert.Equal(t, "transfer_in", s.movements[1].Type)
	assert.Equal(t, 30, s.movements[1].Quantity)
}

func TestCommitTransferIdempotent(t *testing.T) {
	s, ledger := newTestLedger()
	ctx := context.Background()
	p := s.addProduct(100)
	loc := s.addLocation("downtown")

	resID, err := ledger.Reserve(ctx, uuid.New(), p.ID, 30)
	require.NoError(t, err)

	first, err := ledger.CommitTransfer(ctx, resID, loc.ID)
	require.NoError(t, err)

	second, err := ledger.CommitTransfer(ctx, resID, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "replay must return the original transfer")

	got, err := (&stubProductRepo{s: s}).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, got.TotalStock, "stock must move exactly once")
	assert.Equal(t, 30, s.stockAt(loc.ID, p.ID).CurrentStock)
}

func TestCommitTransferConcurrent(t *testing.T) {
	s, ledger := newTestLedger()
	ctx := context.Background()
	p := s.addProduct(100)
	loc := s.addLocation("downtown")

	resID, err := ledger.Reserve(ctx, uuid.New(), p.ID, 30)
	require.NoError(t, err)

	const callers = 8
	transfers := make([]*model.Transfer, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			transfers[i], errs[i] = ledger.CommitTransfer(ctx, resID, loc.ID)
		}(i)
	}
	wg.Wait()

	var winner uuid.UUID
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, transfers[i])
		if winner == uuid.Nil {
			winner = transfers[i].ID
		}
		assert.Equal(t, winner, transfers[i].ID)
	}

	got, err := (&stubProductRepo{s: s}).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, got.TotalStock, "concurrent commits must decrement once")
	assert.Equal(t, 30, s.stockAt(loc.ID, p.ID).CurrentStock)
	assert.Len(t, s.transfers, 1)
}

func TestReleaseRestoresAvailability(t *testing.T) {
	s, ledger := newTestLedger()
	ctx := context.Background()
	p := s.addProduct(50)

	resID, err := ledger.Reserve(ctx, uuid.New(), p.ID, 40)
	require.NoError(t, err)

	require.NoError(t, ledger.Release(ctx, resID))

	available, err := ledger.Available(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, available)

	// Releasing twice is a no-op.
	require.NoError(t, ledger.Release(ctx, resID))
}

func TestReserveRejectsDuplicateRequest(t *testing.T) {
	s, ledger := newTestLedger()
	ctx := context.Background()
	p := s.addProduct(100)
	reqID := uuid.New()

	_, err := ledger.Reserve(ctx, reqID, p.ID, 30)
	require.NoError(t, err)

	// A request holds at most one live reservation.
	_, err = ledger.Reserve(ctx, reqID, p.ID, 30)
	var stErr *StateError
	require.ErrorAs(t, err, &stErr)

	assert.Len(t, s.reservations, 1)
	available, err := ledger.Available(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, available)
}

func TestReserveAfterReleaseRevivesRow(t *testing.T) {
	s, ledger := newTestLedger()
	ctx := context.Background()
	p := s.addProduct(100)
	reqID := uuid.New()

	resID, err := ledger.Reserve(ctx, reqID, p.ID, 30)
	require.NoError(t, err)
	require.NoError(t, ledger.Release(ctx, resID))

	// The released row is reused instead of tripping the request_id index.
	again, err := ledger.Reserve(ctx, reqID, p.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, resID, again)
	assert.Len(t, s.reservations, 1)

	available, err := ledger.Available(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, available)
}

func TestReleaseCommittedReservationFails(t *testing.T) {
	s, ledger := newTestLedger()
	ctx := context.Background()
	p := s.addProduct(50)
	loc := s.addLocation("downtown")

	resID, err := ledger.Reserve(ctx, uuid.New(), p.ID, 20)
	require.NoError(t, err)
	_, err = ledger.CommitTransfer(ctx, resID, loc.ID)
	require.NoError(t, err)

	err = ledger.Release(ctx, resID)
	var stErr *StateError
	assert.ErrorAs(t, err, &stErr)
}

func TestCommitReleasedReservationFails(t *testing.T) {
	s, ledger := newTestLedger()
	ctx := context.Background()
	p := s.addProduct(50)
	loc := s.addLocation("downtown")

	resID, err := ledger.Reserve(ctx, uuid.New(), p.ID, 20)
	require.NoError(t, err)
	require.NoError(t, ledger.Release(ctx, resID))

	_, err = ledger.CommitTransfer(ctx, resID, loc.ID)
	var stErr *StateError
	require.ErrorAs(t, err, &stErr)

	got, err := (&stubProductRepo{s: s}).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.TotalStock)
}

func TestAddProductionCreditsPool(t *testing.T) {
	s, ledger := newTestLedger()
	ctx := context.Background()
	p := s.addProduct(10)

	updated, err := ledger.AddProduction(ctx, p.ID, 25, "morning batch")
	require.NoError(t, err)
	assert.Equal(t, 35, updated.TotalStock)

	require.Len(t, s.movements, 1)
	assert.Equal(t, "production", s.movements[0].Type)
	assert.Equal(t, 25, s.movements[0].Quantity)
	assert.Equal(t, 10, s.movements[0].StockBefore)
	assert.Equal(t, 35, s.movements[0].StockAfter)
}

func TestSequentialApprovalsRespectPool(t *testing.T) {
	// Two requests against a 100-unit pool: the first fulfillment replenishes
	// nothing, so the second approval sees what genuinely remains.
	s, ledger := newTestLedger()
	ctx := context.Background()
	p := s.addProduct(100)
	loc := s.addLocation("downtown")

	resA, err := ledger.Reserve(ctx, uuid.New(), p.ID, 30)
	require.NoError(t, err)

	_, err = ledger.CommitTransfer(ctx, resA, loc.ID)
	require.NoError(t, err)

	// Pool is now 70 with no active reservations.
	available, err := ledger.Available(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, available)

	_, err = ledger.Reserve(ctx, uuid.New(), p.ID, 60)
	require.NoError(t, err)

	available, err = ledger.Available(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)

	_, err = ledger.Reserve(ctx, uuid.New(), p.ID, 11)
	var insuff *InsufficientStockError
	require.ErrorAs(t, err, &insuff)
	assert.Equal(t, 10, insuff.Available)
}
