package service

// stubs_test.go
// In-memory repository stubs backing the service unit tests. One memStore
// holds every table behind a single mutex, so each repository method is
// atomic the same way a single guarded UPDATE is. The GORM-backed
// implementations run without a live *gorm.DB because the transaction
// helper calls straight through when no database handle is present.

import (
	"context"
	"sync"
	"time"

	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type memStore struct {
	mu           sync.Mutex
	products     map[uuid.UUID]*model.Product
	locations    map[uuid.UUID]*model.Location
	stock        map[uuid.UUID]*model.LocationStock // keyed by record id
	requests     map[uuid.UUID]*model.RestockRequest
	reservations map[uuid.UUID]*model.StockReservation
	transfers    map[uuid.UUID]*model.Transfer
	movements    []model.StockMovement

	// statusWins counts won guarded request flips per target status, so
	// tests can assert how many racing callers actually got the row.
	statusWins map[model.RestockStatus]int
}

func newMemStore() *memStore {
	return &memStore{
		products:     make(map[uuid.UUID]*model.Product),
		locations:    make(map[uuid.UUID]*model.Location),
		stock:        make(map[uuid.UUID]*model.LocationStock),
		requests:     make(map[uuid.UUID]*model.RestockRequest),
		reservations: make(map[uuid.UUID]*model.StockReservation),
		transfers:    make(map[uuid.UUID]*model.Transfer),
		statusWins:   make(map[model.RestockStatus]int),
	}
}

func (s *memStore) addProduct(totalStock int) *model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Product{
		ID: uuid.New(), SKU: uuid.NewString()[:8], Name: "widget",
		TotalStock: totalStock, MinStockLevel: 5, Active: true,
	}
	s.products[p.ID] = p
	return p
}

func (s *memStore) addLocation(name string) *model.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &model.Location{ID: uuid.New(), Name: name, Active: true}
	s.locations[l.ID] = l
	return l
}

func (s *memStore) stockAt(locationID, productID uuid.UUID) *model.LocationStock {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ls := range s.stock {
		if ls.LocationID == locationID && ls.ProductID == productID {
			cp := *ls
			return &cp
		}
	}
	return nil
}

// ── ProductRepository ────────────────────────────────────────────────────────

type stubProductRepo struct{ s *memStore }

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	return r.LockByIDTx(nil, id)
}

func (r *stubProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.SKU == sku && p.Active {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.products[id]; ok {
		p.Active = false
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubProductRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.products[id]; ok {
		p.Active = true
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubProductRepo) LockByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) DecrementStockGuardedTx(_ *gorm.DB, id uuid.UUID, amount int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok || p.TotalStock < amount {
		return false, nil
	}
	p.TotalStock -= amount
	return true, nil
}

func (r *stubProductRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, amount int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.TotalStock += amount
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

// ── LocationRepository ───────────────────────────────────────────────────────

type stubLocationRepo struct{ s *memStore }

func (r *stubLocationRepo) Create(_ context.Context, l *model.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.s.locations[l.ID] = l
	return nil
}

func (r *stubLocationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *stubLocationRepo) List(_ context.Context, includeInactive bool) ([]model.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Location, 0, len(r.s.locations))
	for _, l := range r.s.locations {
		if !includeInactive && !l.Active {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (r *stubLocationRepo) Update(_ context.Context, l *model.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.locations[l.ID] = l
	return nil
}

func (r *stubLocationRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.locations[id]; ok {
		l.Active = false
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubLocationRepo) FindStock(_ context.Context, locationID, productID uuid.UUID) (*model.LocationStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ls := range r.s.stock {
		if ls.LocationID == locationID && ls.ProductID == productID {
			cp := *ls
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubLocationRepo) ListStockByLocation(_ context.Context, locationID uuid.UUID) ([]model.LocationStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.LocationStock
	for _, ls := range r.s.stock {
		if ls.LocationID == locationID {
			cp := *ls
			cp.Product = r.s.products[ls.ProductID]
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *stubLocationRepo) ListAllStock(_ context.Context) ([]model.LocationStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.LocationStock, 0, len(r.s.stock))
	for _, ls := range r.s.stock {
		cp := *ls
		cp.Product = r.s.products[ls.ProductID]
		cp.Location = r.s.locations[ls.LocationID]
		out = append(out, cp)
	}
	return out, nil
}

func (r *stubLocationRepo) UpdateStockMin(_ context.Context, id uuid.UUID, minStock *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ls, ok := r.s.stock[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ls.MinStock = minStock
	return nil
}

func (r *stubLocationRepo) GetOrCreateStockTx(_ *gorm.DB, locationID, productID uuid.UUID) (*model.LocationStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ls := range r.s.stock {
		if ls.LocationID == locationID && ls.ProductID == productID {
			cp := *ls
			return &cp, nil
		}
	}
	ls := &model.LocationStock{ID: uuid.New(), LocationID: locationID, ProductID: productID}
	r.s.stock[ls.ID] = ls
	cp := *ls
	return &cp, nil
}

func (r *stubLocationRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, amount int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ls, ok := r.s.stock[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ls.CurrentStock += amount
	ls.LastRestockAt = &at
	return nil
}

// ── ReservationRepository ────────────────────────────────────────────────────

type stubReservationRepo struct{ s *memStore }

func (r *stubReservationRepo) CreateTx(_ *gorm.DB, res *model.StockReservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// Mirrors the unique index on request_id.
	for _, existing := range r.s.reservations {
		if existing.RequestID == res.RequestID {
			return gorm.ErrDuplicatedKey
		}
	}
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	r.s.reservations[res.ID] = res
	return nil
}

func (r *stubReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockReservation, error) {
	return r.FindByIDTx(nil, id)
}

func (r *stubReservationRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.StockReservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *stubReservationRepo) FindByRequestID(_ context.Context, requestID uuid.UUID) (*model.StockReservation, error) {
	return r.FindByRequestIDTx(nil, requestID)
}

func (r *stubReservationRepo) FindByRequestIDTx(_ *gorm.DB, requestID uuid.UUID) (*model.StockReservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, res := range r.s.reservations {
		if res.RequestID == requestID {
			cp := *res
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubReservationRepo) SumActiveByProductTx(_ *gorm.DB, productID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := 0
	for _, res := range r.s.reservations {
		if res.ProductID == productID && res.Status == model.ReservationActive {
			sum += res.Amount
		}
	}
	return sum, nil
}

func (r *stubReservationRepo) MarkStatusGuardedTx(_ *gorm.DB, id uuid.UUID, from, to model.ReservationStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	return true, nil
}

func (r *stubReservationRepo) ReactivateTx(_ *gorm.DB, id uuid.UUID, amount int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok || res.Status != model.ReservationReleased {
		return false, nil
	}
	res.Status = model.ReservationActive
	res.Amount = amount
	return true, nil
}

// ── TransferRepository ───────────────────────────────────────────────────────

type stubTransferRepo struct{ s *memStore }

func (r *stubTransferRepo) CreateTx(_ *gorm.DB, t *model.Transfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.s.transfers[t.ID] = t
	return nil
}

func (r *stubTransferRepo) FindByRequestID(_ context.Context, requestID uuid.UUID) (*model.Transfer, error) {
	return r.FindByRequestIDTx(nil, requestID)
}

func (r *stubTransferRepo) FindByRequestIDTx(_ *gorm.DB, requestID uuid.UUID) (*model.Transfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.transfers {
		if t.RequestID == requestID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubTransferRepo) List(_ context.Context, productID, locationID *uuid.UUID) ([]model.Transfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Transfer
	for _, t := range r.s.transfers {
		if productID != nil && t.ProductID != *productID {
			continue
		}
		if locationID != nil && t.LocationID != *locationID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

// ── StockMovementRepository ──────────────────────────────────────────────────

type stubMovementRepo struct{ s *memStore }

func (r *stubMovementRepo) Create(_ context.Context, m *model.StockMovement) error {
	return r.CreateTx(nil, m)
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.s.movements {
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

// ── RestockRequestRepository ─────────────────────────────────────────────────

type stubRestockRepo struct{ s *memStore }

func (r *stubRestockRepo) Create(_ context.Context, req *model.RestockRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now().UTC()
	r.s.requests[req.ID] = req
	return nil
}

func (r *stubRestockRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RestockRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	cp.Location = r.s.locations[req.LocationID]
	cp.Product = r.s.products[req.ProductID]
	return &cp, nil
}

func (r *stubRestockRepo) List(_ context.Context, filter dto.RestockFilter) ([]model.RestockRequest, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.RestockRequest
	for _, req := range r.s.requests {
		if !filter.IncludeHidden && req.Hidden {
			continue
		}
		if filter.Status != "" && string(req.Status) != filter.Status {
			continue
		}
		if filter.LocationID != "" && req.LocationID.String() != filter.LocationID {
			continue
		}
		if filter.ProductID != "" && req.ProductID.String() != filter.ProductID {
			continue
		}
		out = append(out, *req)
	}
	return out, int64(len(out)), nil
}

func (r *stubRestockRepo) MarkStatusGuardedTx(_ *gorm.DB, id uuid.UUID, from, to model.RestockStatus, extra map[string]any) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	for k, v := range extra {
		switch k {
		case "approved_amount":
			amount := v.(int)
			req.ApprovedAmount = &amount
		case "approved_at":
			at := v.(time.Time)
			req.ApprovedAt = &at
		case "fulfilled_at":
			at := v.(time.Time)
			req.FulfilledAt = &at
		case "note":
			req.Note = v.(string)
		}
	}
	r.s.statusWins[to]++
	return true, nil
}

func (r *stubRestockRepo) SetHidden(_ context.Context, id uuid.UUID, hidden bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	req.Hidden = hidden
	return nil
}

func (r *stubRestockRepo) DB() *gorm.DB { return nil }
