package repository

import (
	"context"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransferRepository interface {
	CreateTx(tx *gorm.DB, t *model.Transfer) error
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.Transfer, error)
	FindByRequestIDTx(tx *gorm.DB, requestID uuid.UUID) (*model.Transfer, error)
	List(ctx context.Context, productID *uuid.UUID, locationID *uuid.UUID) ([]model.Transfer, error)
}

type transferRepo struct{ db *gorm.DB }

func NewTransferRepository(db *gorm.DB) TransferRepository { return &transferRepo{db: db} }

func (r *transferRepo) CreateTx(tx *gorm.DB, t *model.Transfer) error {
	return tx.Create(t).Error
}

func (r *transferRepo) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.Transfer, error) {
	var t model.Transfer
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&t).Error
	return &t, err
}

func (r *transferRepo) FindByRequestIDTx(tx *gorm.DB, requestID uuid.UUID) (*model.Transfer, error) {
	var t model.Transfer
	err := tx.Where("request_id = ?", requestID).First(&t).Error
	return &t, err
}

func (r *transferRepo) List(ctx context.Context, productID *uuid.UUID, locationID *uuid.UUID) ([]model.Transfer, error) {
	q := r.db.WithContext(ctx).Model(&model.Transfer{})
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	}
	if locationID != nil {
		q = q.Where("location_id = ?", *locationID)
	}
	var transfers []model.Transfer
	err := q.Order("committed_at DESC").Find(&transfers).Error
	return transfers, err
}
