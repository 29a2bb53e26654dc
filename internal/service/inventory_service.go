package service

import (
	"context"
	"time"

	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// lowStockThreshold resolves the effective threshold for a location record:
// the per-record override when set, otherwise the product default.
func lowStockThreshold(override *int, productMin int) int {
	if override != nil {
		return *override
	}
	return productMin
}

// IsLowStock reports whether a location record is at or below its effective
// threshold. At-threshold counts as low, so a threshold of zero only fires
// when the location is empty.
func IsLowStock(current int, override *int, productMin int) bool {
	return current <= lowStockThreshold(override, productMin)
}

// InventoryService serves the read models: low-stock report, movement
// history, and the factory valuation. No writes happen here.
type InventoryService interface {
	ListLowStockAlerts(ctx context.Context) ([]dto.LowStockAlertResponse, error)
	ListMovements(ctx context.Context, filter repository.StockMovementFilter) (*dto.StockMovementListResponse, error)
	Valuation(ctx context.Context) (*dto.ValuationResponse, error)
	ListStockByLocation(ctx context.Context, locationID uuid.UUID) ([]dto.LocationStockResponse, error)
	ListTransfers(ctx context.Context, productID, locationID *uuid.UUID) ([]dto.TransferResponse, error)
}

type inventoryService struct {
	products  repository.ProductRepository
	locations repository.LocationRepository
	movements repository.StockMovementRepository
	transfers repository.TransferRepository
}

func NewInventoryService(
	products repository.ProductRepository,
	locations repository.LocationRepository,
	movements repository.StockMovementRepository,
	transfers repository.TransferRepository,
) InventoryService {
	return &inventoryService{
		products:  products,
		locations: locations,
		movements: movements,
		transfers: transfers,
	}
}

func (s *inventoryService) ListLowStockAlerts(ctx context.Context) ([]dto.LowStockAlertResponse, error) {
	records, err := s.locations.ListAllStock(ctx)
	if err != nil {
		return nil, err
	}

	alerts := make([]dto.LowStockAlertResponse, 0)
	for i := range records {
		r := &records[i]
		if r.Product == nil || !r.Product.Active {
			continue
		}
		if !IsLowStock(r.CurrentStock, r.MinStock, r.Product.MinStockLevel) {
			continue
		}
		alert := dto.LowStockAlertResponse{
			LocationID:   r.LocationID.String(),
			ProductID:    r.ProductID.String(),
			ProductName:  r.Product.Name,
			SKU:          r.Product.SKU,
			CurrentStock: r.CurrentStock,
			Threshold:    lowStockThreshold(r.MinStock, r.Product.MinStockLevel),
		}
		if r.Location != nil {
			alert.LocationName = r.Location.Name
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, filter repository.StockMovementFilter) (*dto.StockMovementListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	movements, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.StockMovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, movementToResponse(&movements[i]))
	}
	return &dto.StockMovementListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// Valuation prices the factory pool at unit cost. Only the central counter
// participates; stock already transferred to locations is out of the pool.
func (s *inventoryService) Valuation(ctx context.Context) (*dto.ValuationResponse, error) {
	products, _, err := s.products.List(ctx, dto.ProductFilter{Active: "all", Page: 1, Limit: 500})
	if err != nil {
		return nil, err
	}

	lines := make([]dto.ValuationLine, 0, len(products))
	total := decimal.Zero
	for i := range products {
		p := &products[i]
		value := p.UnitCost.Mul(decimal.NewFromInt(int64(p.TotalStock)))
		total = total.Add(value)
		lines = append(lines, dto.ValuationLine{
			ProductID:  p.ID.String(),
			SKU:        p.SKU,
			Name:       p.Name,
			TotalStock: p.TotalStock,
			UnitCost:   p.UnitCost.StringFixed(2),
			Value:      value.StringFixed(2),
		})
	}
	return &dto.ValuationResponse{
		Lines:      lines,
		TotalValue: total.StringFixed(2),
		AsOf:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *inventoryService) ListStockByLocation(ctx context.Context, locationID uuid.UUID) ([]dto.LocationStockResponse, error) {
	if _, err := s.locations.FindByID(ctx, locationID); err != nil {
		return nil, asNotFound("location", locationID, err)
	}
	records, err := s.locations.ListStockByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.LocationStockResponse, 0, len(records))
	for i := range records {
		r := &records[i]
		resp := dto.LocationStockResponse{
			ID:           r.ID.String(),
			LocationID:   r.LocationID.String(),
			ProductID:    r.ProductID.String(),
			CurrentStock: r.CurrentStock,
			MinStock:     r.MinStock,
		}
		if r.Product != nil {
			resp.ProductName = r.Product.Name
			resp.SKU = r.Product.SKU
			resp.Threshold = lowStockThreshold(r.MinStock, r.Product.MinStockLevel)
		}
		if r.LastRestockAt != nil {
			at := r.LastRestockAt.Format(time.RFC3339)
			resp.LastRestockAt = &at
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *inventoryService) ListTransfers(ctx context.Context, productID, locationID *uuid.UUID) ([]dto.TransferResponse, error) {
	transfers, err := s.transfers.List(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TransferResponse, 0, len(transfers))
	for i := range transfers {
		out = append(out, transferToResponse(&transfers[i]))
	}
	return out, nil
}

func movementToResponse(m *model.StockMovement) dto.StockMovementResponse {
	resp := dto.StockMovementResponse{
		ID:          m.ID.String(),
		ProductID:   m.ProductID.String(),
		Type:        m.Type,
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Reason:      m.Reason,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
	}
	if m.LocationID != nil {
		id := m.LocationID.String()
		resp.LocationID = &id
	}
	if m.ReferenceID != nil {
		id := m.ReferenceID.String()
		resp.ReferenceID = &id
	}
	return resp
}

func transferToResponse(t *model.Transfer) dto.TransferResponse {
	return dto.TransferResponse{
		ID:                 t.ID.String(),
		RequestID:          t.RequestID.String(),
		ProductID:          t.ProductID.String(),
		LocationID:         t.LocationID.String(),
		Amount:             t.Amount,
		FactoryStockAfter:  t.FactoryStockAfter,
		LocationStockAfter: t.LocationStockAfter,
		CommittedAt:        t.CommittedAt.Format(time.RFC3339),
	}
}
