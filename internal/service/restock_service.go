package service

import (
	"context"
	"time"

	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"
	"stockroom/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Actor identifies who invoked an operation. Authorization happened at the
// transport edge; the core trusts the id and role it is handed.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// RestockService orchestrates the request lifecycle: it validates the state
// transition, drives the matching ledger primitive, persists the request and
// emits events to the audit/notification collaborators. Events are enqueued
// only after the database work is done and their failure is never propagated.
type RestockService interface {
	CreateRequest(ctx context.Context, actor Actor, req dto.CreateRestockRequest) (*dto.RestockResponse, error)
	Approve(ctx context.Context, actor Actor, requestID uuid.UUID, req dto.ApproveRestockRequest) (*dto.RestockResponse, error)
	Reject(ctx context.Context, actor Actor, requestID uuid.UUID, req dto.RejectRestockRequest) (*dto.RestockResponse, error)
	Fulfill(ctx context.Context, actor Actor, requestID uuid.UUID) (*dto.RestockResponse, error)
	Cancel(ctx context.Context, actor Actor, requestID uuid.UUID, req dto.CancelRestockRequest) (*dto.RestockResponse, error)
	SoftDelete(ctx context.Context, actor Actor, requestID uuid.UUID) error
	Get(ctx context.Context, requestID uuid.UUID) (*dto.RestockResponse, error)
	List(ctx context.Context, filter dto.RestockFilter) (*dto.RestockListResponse, error)
}

type restockService struct {
	repo         repository.RestockRequestRepository
	reservations repository.ReservationRepository
	transfers    repository.TransferRepository
	products     repository.ProductRepository
	locations    repository.LocationRepository
	ledger       StockLedger
	dispatcher   *worker.Dispatcher
}

func NewRestockService(
	repo repository.RestockRequestRepository,
	reservations repository.ReservationRepository,
	transfers repository.TransferRepository,
	products repository.ProductRepository,
	locations repository.LocationRepository,
	ledger StockLedger,
	dispatcher *worker.Dispatcher,
) RestockService {
	return &restockService{
		repo:         repo,
		reservations: reservations,
		transfers:    transfers,
		products:     products,
		locations:    locations,
		ledger:       ledger,
		dispatcher:   dispatcher,
	}
}

// ── CreateRequest ────────────────────────────────────────────────────────────

func (s *restockService) CreateRequest(ctx context.Context, actor Actor, req dto.CreateRestockRequest) (*dto.RestockResponse, error) {
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return nil, &ValidationError{Field: "location_id", Msg: "must be a valid uuid"}
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, &ValidationError{Field: "product_id", Msg: "must be a valid uuid"}
	}
	if req.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Msg: "must be greater than zero"}
	}

	location, err := s.locations.FindByID(ctx, locationID)
	if err != nil {
		return nil, asNotFound("location", locationID, err)
	}
	if !location.Active {
		return nil, &ValidationError{Field: "location_id", Msg: "location is inactive"}
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, asNotFound("product", productID, err)
	}
	if !product.Active {
		return nil, &ValidationError{Field: "product_id", Msg: "product is inactive"}
	}

	request := &model.RestockRequest{
		LocationID:      locationID,
		ProductID:       productID,
		RequestedAmount: req.Amount,
		Status:          model.StatusPending,
		Note:            req.Note,
		CreatedBy:       actor.ID,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}
	request.Location = location
	request.Product = product

	s.emit(ctx, "requested", request, req.Amount, actor, nil)
	return restockToResponse(request), nil
}

// ── Approve ──────────────────────────────────────────────────────────────────
// Approval reserves and flips the request row inside one transaction: the
// amount is earmarked and the status moves to approved as a single unit, so
// the sum of approved amounts can never exceed the factory pool and two
// racing approvals of the same request resolve to exactly one reservation.

func (s *restockService) Approve(ctx context.Context, actor Actor, requestID uuid.UUID, req dto.ApproveRestockRequest) (*dto.RestockResponse, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, asNotFound("request", requestID, err)
	}
	if err := guardTransition(request, model.StatusApproved); err != nil {
		return nil, err
	}

	amount := request.RequestedAmount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Msg: "must be greater than zero"}
	}
	if amount > request.RequestedAmount {
		return nil, &ValidationError{Field: "amount", Msg: "cannot exceed the requested amount"}
	}

	now := time.Now().UTC()
	err = retryTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Reserve first: an insufficient pool aborts before the row flips,
		// and a duplicate reservation means another approval won the race.
		if _, err := s.ledger.ReserveTx(tx, request.ID, request.ProductID, amount); err != nil {
			return err
		}
		ok, err := s.repo.MarkStatusGuardedTx(tx, request.ID, model.StatusPending, model.StatusApproved, map[string]any{
			"approved_amount": amount,
			"approved_at":     now,
		})
		if err != nil {
			return err
		}
		if !ok {
			// Rolls back the reservation with the transaction.
			return s.staleTransition(ctx, request.ID, model.StatusApproved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.Status = model.StatusApproved
	request.ApprovedAmount = &amount
	request.ApprovedAt = &now
	s.emit(ctx, "approved", request, amount, actor, nil)
	return restockToResponse(request), nil
}

// ── Reject ───────────────────────────────────────────────────────────────────

func (s *restockService) Reject(ctx context.Context, actor Actor, requestID uuid.UUID, req dto.RejectRestockRequest) (*dto.RestockResponse, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, asNotFound("request", requestID, err)
	}
	if err := guardTransition(request, model.StatusRejected); err != nil {
		return nil, err
	}

	// A pending request holds no reservation — no stock side effect.
	extra := map[string]any{}
	if req.Reason != "" {
		extra["note"] = req.Reason
	}
	err = retryTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ok, err := s.repo.MarkStatusGuardedTx(tx, request.ID, model.StatusPending, model.StatusRejected, extra)
		if err != nil {
			return err
		}
		if !ok {
			return s.staleTransition(ctx, request.ID, model.StatusRejected)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.Status = model.StatusRejected
	if req.Reason != "" {
		request.Note = req.Reason
	}
	s.emit(ctx, "rejected", request, request.RequestedAmount, actor, nil)
	return restockToResponse(request), nil
}

// ── Fulfill ──────────────────────────────────────────────────────────────────
// Safe to call more than once: the ledger commit is idempotent, so repeated
// and concurrent fulfillments observe exactly one stock transfer and all
// return the originally recorded result.

func (s *restockService) Fulfill(ctx context.Context, actor Actor, requestID uuid.UUID) (*dto.RestockResponse, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, asNotFound("request", requestID, err)
	}
	if request.Status != model.StatusFulfilled {
		if err := guardTransition(request, model.StatusFulfilled); err != nil {
			return nil, err
		}
	}

	reservation, err := s.reservations.FindByRequestID(ctx, request.ID)
	if err != nil {
		return nil, asNotFound("reservation", request.ID, err)
	}

	transfer, err := s.ledger.CommitTransfer(ctx, reservation.ID, request.LocationID)
	if err != nil {
		return nil, err
	}

	if request.Status != model.StatusFulfilled {
		at := transfer.CommittedAt
		// Guarded flip: of several concurrent fulfillments only the one
		// that wins the row emits the events.
		won, err := s.repo.MarkStatusGuardedTx(s.repo.DB(), request.ID, model.StatusApproved, model.StatusFulfilled, map[string]any{
			"fulfilled_at": at,
		})
		if err != nil {
			return nil, err
		}
		request.Status = model.StatusFulfilled
		request.FulfilledAt = &at
		if won {
			s.emit(ctx, "fulfilled", request, transfer.Amount, actor, transfer)
			s.checkLowStock(ctx, request, transfer)
		}
	}

	return restockToResponse(request), nil
}

// ── Cancel ───────────────────────────────────────────────────────────────────

func (s *restockService) Cancel(ctx context.Context, actor Actor, requestID uuid.UUID, req dto.CancelRestockRequest) (*dto.RestockResponse, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, asNotFound("request", requestID, err)
	}
	if err := guardTransition(request, model.StatusCancelled); err != nil {
		return nil, err
	}

	reservation, err := s.reservations.FindByRequestID(ctx, request.ID)
	if err != nil {
		return nil, asNotFound("reservation", request.ID, err)
	}

	extra := map[string]any{}
	if req.Reason != "" {
		extra["note"] = req.Reason
	}
	// Flip and release as one unit: if a concurrent fulfillment already
	// committed the reservation, the release fails and the flip rolls back.
	err = retryTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ok, err := s.repo.MarkStatusGuardedTx(tx, request.ID, model.StatusApproved, model.StatusCancelled, extra)
		if err != nil {
			return err
		}
		if !ok {
			return s.staleTransition(ctx, request.ID, model.StatusCancelled)
		}
		return s.ledger.ReleaseTx(tx, reservation.ID)
	})
	if err != nil {
		return nil, err
	}

	request.Status = model.StatusCancelled
	if req.Reason != "" {
		request.Note = req.Reason
	}
	amount := request.RequestedAmount
	if request.ApprovedAmount != nil {
		amount = *request.ApprovedAmount
	}
	s.emit(ctx, "cancelled", request, amount, actor, nil)
	return restockToResponse(request), nil
}

// ── SoftDelete ───────────────────────────────────────────────────────────────
// Hides the request from default listings without destroying its history.
// Orthogonal to status: a hidden request keeps whatever state it was in.

func (s *restockService) SoftDelete(ctx context.Context, actor Actor, requestID uuid.UUID) error {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return asNotFound("request", requestID, err)
	}
	if err := s.repo.SetHidden(ctx, requestID, true); err != nil {
		return asNotFound("request", requestID, err)
	}
	request.Hidden = true
	s.emit(ctx, "deleted", request, 0, actor, nil)
	return nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *restockService) Get(ctx context.Context, requestID uuid.UUID) (*dto.RestockResponse, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, asNotFound("request", requestID, err)
	}
	return restockToResponse(request), nil
}

func (s *restockService) List(ctx context.Context, filter dto.RestockFilter) (*dto.RestockListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.RestockResponse, 0, len(requests))
	for i := range requests {
		items = append(items, *restockToResponse(&requests[i]))
	}
	return &dto.RestockListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// guardTransition enforces the lifecycle adjacency before any side effect
// runs, so an illegal call leaves every counter and row untouched.
func guardTransition(request *model.RestockRequest, to model.RestockStatus) error {
	if !model.CanTransition(request.Status, to) {
		return &StateError{RequestID: request.ID, From: request.Status, To: to}
	}
	return nil
}

// staleTransition classifies a lost guarded flip. A re-read showing another
// status means a concurrent writer finished the race first: report the
// illegal transition from where the row actually is. A row still in the
// expected state was a transient miss and is retried.
func (s *restockService) staleTransition(ctx context.Context, requestID uuid.UUID, to model.RestockStatus) error {
	current, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return ErrConcurrencyConflict
	}
	if model.CanTransition(current.Status, to) {
		return ErrConcurrencyConflict
	}
	return &StateError{RequestID: requestID, From: current.Status, To: to}
}

// emit queues the lifecycle event for the audit and notification consumers.
// Fire-and-forget: a full queue or a down Redis is logged, never returned.
func (s *restockService) emit(ctx context.Context, eventType string, request *model.RestockRequest, amount int, actor Actor, transfer *model.Transfer) {
	if s.dispatcher == nil {
		return
	}

	ev := worker.TransferEvent{
		Type:       eventType,
		RequestID:  request.ID,
		ProductID:  request.ProductID,
		LocationID: request.LocationID,
		Amount:     amount,
		ActorID:    actor.ID,
		At:         time.Now().UTC(),
	}
	if request.Product != nil {
		ev.ProductName = request.Product.Name
		ev.SKU = request.Product.SKU
	}
	if request.Location != nil {
		ev.LocationName = request.Location.Name
	}
	if transfer != nil {
		ev.FactoryStockAfter = transfer.FactoryStockAfter
		ev.LocationStockAfter = transfer.LocationStockAfter
	}

	if err := s.dispatcher.EnqueueAudit(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("restock: audit enqueue failed")
	}
	if err := s.dispatcher.EnqueueTransferNotification(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("restock: notification enqueue failed")
	}
}

// checkLowStock runs the monitor against the freshly updated location record
// and raises an alert event when it is at or below its threshold.
func (s *restockService) checkLowStock(ctx context.Context, request *model.RestockRequest, transfer *model.Transfer) {
	if s.dispatcher == nil {
		return
	}

	record, err := s.locations.FindStock(ctx, request.LocationID, request.ProductID)
	if err != nil {
		log.Warn().Err(err).Msg("restock: low-stock check skipped, record not readable")
		return
	}
	product := request.Product
	if product == nil {
		if product, err = s.products.FindByID(ctx, request.ProductID); err != nil {
			return
		}
	}
	if !IsLowStock(record.CurrentStock, record.MinStock, product.MinStockLevel) {
		return
	}

	ev := worker.LowStockEvent{
		LocationID:   request.LocationID,
		ProductID:    request.ProductID,
		ProductName:  product.Name,
		CurrentStock: record.CurrentStock,
		Threshold:    lowStockThreshold(record.MinStock, product.MinStockLevel),
		At:           time.Now().UTC(),
	}
	if request.Location != nil {
		ev.LocationName = request.Location.Name
	}
	if err := s.dispatcher.EnqueueLowStockAlert(ctx, ev); err != nil {
		log.Warn().Err(err).Msg("restock: low-stock enqueue failed")
	}
}

func restockToResponse(r *model.RestockRequest) *dto.RestockResponse {
	resp := &dto.RestockResponse{
		ID:              r.ID.String(),
		LocationID:      r.LocationID.String(),
		ProductID:       r.ProductID.String(),
		RequestedAmount: r.RequestedAmount,
		ApprovedAmount:  r.ApprovedAmount,
		Status:          string(r.Status),
		Note:            r.Note,
		Hidden:          r.Hidden,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
	if r.Location != nil {
		resp.LocationName = r.Location.Name
	}
	if r.Product != nil {
		resp.ProductName = r.Product.Name
	}
	if r.ApprovedAt != nil {
		at := r.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &at
	}
	if r.FulfilledAt != nil {
		at := r.FulfilledAt.Format(time.RFC3339)
		resp.FulfilledAt = &at
	}
	return resp
}
