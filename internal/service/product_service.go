package service

import (
	"context"

	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, int64, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error

	// AddStock records a production intake against the factory pool.
	AddStock(ctx context.Context, actor Actor, id uuid.UUID, req dto.AddStockRequest) (*dto.ProductResponse, error)
}

type productService struct {
	repo   repository.ProductRepository
	ledger StockLedger
}

func NewProductService(repo repository.ProductRepository, ledger StockLedger) ProductService {
	return &productService{repo: repo, ledger: ledger}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if req.MinStockLevel != nil {
		p.MinStockLevel = *req.MinStockLevel
	} else {
		p.MinStockLevel = 5
	}
	if req.UnitCost != nil {
		cost, err := decimal.NewFromString(*req.UnitCost)
		if err != nil || cost.IsNegative() {
			return nil, &ValidationError{Field: "unit_cost", Msg: "must be a non-negative decimal"}
		}
		p.UnitCost = cost
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, p), nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, asNotFound("product", id, err)
	}
	return s.toResponse(ctx, p), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 100
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		resp = append(resp, *productToResponse(&products[i]))
	}
	return resp, total, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, asNotFound("product", id, err)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.MinStockLevel != nil {
		p.MinStockLevel = *req.MinStockLevel
	}
	if req.UnitCost != nil {
		cost, err := decimal.NewFromString(*req.UnitCost)
		if err != nil || cost.IsNegative() {
			return nil, &ValidationError{Field: "unit_cost", Msg: "must be a non-negative decimal"}
		}
		p.UnitCost = cost
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, p), nil
}

func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return asNotFound("product", id, err)
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *productService) AddStock(ctx context.Context, actor Actor, id uuid.UUID, req dto.AddStockRequest) (*dto.ProductResponse, error) {
	p, err := s.ledger.AddProduction(ctx, id, req.Amount, req.Reason)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("product_id", id.String()).
		Int("amount", req.Amount).
		Str("actor_id", actor.ID.String()).
		Msg("production intake recorded")
	return s.toResponse(ctx, p), nil
}

// toResponse attaches the available counter, which needs a ledger read.
// A failing read degrades to the bare product rather than failing the call.
func (s *productService) toResponse(ctx context.Context, p *model.Product) *dto.ProductResponse {
	resp := productToResponse(p)
	if available, err := s.ledger.Available(ctx, p.ID); err == nil {
		resp.AvailableStock = &available
	}
	return resp
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:            p.ID.String(),
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		TotalStock:    p.TotalStock,
		MinStockLevel: p.MinStockLevel,
		UnitCost:      p.UnitCost.StringFixed(2),
		Active:        p.Active,
	}
}
