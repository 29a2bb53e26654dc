package repository

import (
	"context"

	"stockroom/internal/dto"
	"stockroom/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RestockRequestRepository interface {
	Create(ctx context.Context, req *model.RestockRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RestockRequest, error)
	List(ctx context.Context, filter dto.RestockFilter) ([]model.RestockRequest, int64, error)

	// MarkStatusGuardedTx flips the request status in a single conditional
	// write, applying extra column updates in the same statement. Returns
	// false when the request was not in the expected state, so exactly one
	// of several racing callers wins the transition.
	MarkStatusGuardedTx(tx *gorm.DB, id uuid.UUID, from, to model.RestockStatus, extra map[string]any) (bool, error)
	SetHidden(ctx context.Context, id uuid.UUID, hidden bool) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type restockRepo struct{ db *gorm.DB }

func NewRestockRequestRepository(db *gorm.DB) RestockRequestRepository {
	return &restockRepo{db: db}
}

func (r *restockRepo) Create(ctx context.Context, req *model.RestockRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *restockRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.RestockRequest, error) {
	var req model.RestockRequest
	err := r.db.WithContext(ctx).Preload("Location").Preload("Product").First(&req, id).Error
	return &req, err
}

func (r *restockRepo) List(ctx context.Context, filter dto.RestockFilter) ([]model.RestockRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.RestockRequest{}).
		Preload("Location").Preload("Product")

	if !filter.IncludeHidden {
		q = q.Where("hidden = false")
	}
	if filter.LocationID != "" {
		q = q.Where("location_id = ?", filter.LocationID)
	}
	if filter.ProductID != "" {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var requests []model.RestockRequest
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&requests).Error
	return requests, total, err
}

func (r *restockRepo) MarkStatusGuardedTx(tx *gorm.DB, id uuid.UUID, from, to model.RestockStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&model.RestockRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *restockRepo) SetHidden(ctx context.Context, id uuid.UUID, hidden bool) error {
	res := r.db.WithContext(ctx).Model(&model.RestockRequest{}).
		Where("id = ?", id).Update("hidden", hidden)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *restockRepo) DB() *gorm.DB { return r.db }
