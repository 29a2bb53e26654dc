package service

import (
	"context"

	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/google/uuid"
)

type LocationService interface {
	Create(ctx context.Context, req dto.CreateLocationRequest) (*dto.LocationResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.LocationResponse, error)
	List(ctx context.Context, includeInactive bool) ([]dto.LocationResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateLocationRequest) (*dto.LocationResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	SetStockMin(ctx context.Context, locationID, productID uuid.UUID, req dto.UpdateStockMinRequest) error
}

type locationService struct {
	repo repository.LocationRepository
}

func NewLocationService(repo repository.LocationRepository) LocationService {
	return &locationService{repo: repo}
}

func (s *locationService) Create(ctx context.Context, req dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	l := &model.Location{Name: req.Name, Address: req.Address, Active: true}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return locationToResponse(l), nil
}

func (s *locationService) Get(ctx context.Context, id uuid.UUID) (*dto.LocationResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, asNotFound("location", id, err)
	}
	return locationToResponse(l), nil
}

func (s *locationService) List(ctx context.Context, includeInactive bool) ([]dto.LocationResponse, error) {
	locations, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.LocationResponse, 0, len(locations))
	for i := range locations {
		resp = append(resp, *locationToResponse(&locations[i]))
	}
	return resp, nil
}

func (s *locationService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, asNotFound("location", id, err)
	}
	if req.Name != nil {
		l.Name = *req.Name
	}
	if req.Address != nil {
		l.Address = req.Address
	}
	if req.Active != nil {
		l.Active = *req.Active
	}
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return locationToResponse(l), nil
}

func (s *locationService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return asNotFound("location", id, err)
	}
	return s.repo.SoftDelete(ctx, id)
}

// SetStockMin sets or clears the per-location threshold override for one
// product. nil clears it back to the product default.
func (s *locationService) SetStockMin(ctx context.Context, locationID, productID uuid.UUID, req dto.UpdateStockMinRequest) error {
	record, err := s.repo.FindStock(ctx, locationID, productID)
	if err != nil {
		return asNotFound("stock record", productID, err)
	}
	return s.repo.UpdateStockMin(ctx, record.ID, req.MinStock)
}

func locationToResponse(l *model.Location) *dto.LocationResponse {
	return &dto.LocationResponse{
		ID:      l.ID.String(),
		Name:    l.Name,
		Address: l.Address,
		Active:  l.Active,
	}
}
