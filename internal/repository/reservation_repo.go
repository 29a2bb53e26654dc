package repository

import (
	"context"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationRepository interface {
	CreateTx(tx *gorm.DB, res *model.StockReservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockReservation, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockReservation, error)
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.StockReservation, error)
	FindByRequestIDTx(tx *gorm.DB, requestID uuid.UUID) (*model.StockReservation, error)

	// SumActiveByProductTx totals the earmarked amounts for one product.
	// Must run inside the tx holding the product row lock.
	SumActiveByProductTx(tx *gorm.DB, productID uuid.UUID) (int, error)

	// MarkStatusGuardedTx flips status from one value to another in a single
	// conditional write. Returns false when the reservation was not in the
	// expected state — the caller lost a race or the transition is stale.
	MarkStatusGuardedTx(tx *gorm.DB, id uuid.UUID, from, to model.ReservationStatus) (bool, error)

	// ReactivateTx revives a released reservation with a fresh amount,
	// guarded on the released state. The unique index on request_id means a
	// re-approved request must reuse its old row instead of inserting.
	ReactivateTx(tx *gorm.DB, id uuid.UUID, amount int) (bool, error)
}

type reservationRepo struct{ db *gorm.DB }

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

func (r *reservationRepo) CreateTx(tx *gorm.DB, res *model.StockReservation) error {
	return tx.Create(res).Error
}

func (r *reservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockReservation, error) {
	var res model.StockReservation
	err := r.db.WithContext(ctx).First(&res, id).Error
	return &res, err
}

func (r *reservationRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockReservation, error) {
	var res model.StockReservation
	err := tx.First(&res, id).Error
	return &res, err
}

func (r *reservationRepo) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.StockReservation, error) {
	var res model.StockReservation
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&res).Error
	return &res, err
}

func (r *reservationRepo) FindByRequestIDTx(tx *gorm.DB, requestID uuid.UUID) (*model.StockReservation, error) {
	var res model.StockReservation
	err := tx.Where("request_id = ?", requestID).First(&res).Error
	return &res, err
}

func (r *reservationRepo) SumActiveByProductTx(tx *gorm.DB, productID uuid.UUID) (int, error) {
	var sum int64
	err := tx.Model(&model.StockReservation{}).
		Where("product_id = ? AND status = ?", productID, model.ReservationActive).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return int(sum), err
}

func (r *reservationRepo) MarkStatusGuardedTx(tx *gorm.DB, id uuid.UUID, from, to model.ReservationStatus) (bool, error) {
	res := tx.Model(&model.StockReservation{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *reservationRepo) ReactivateTx(tx *gorm.DB, id uuid.UUID, amount int) (bool, error) {
	res := tx.Model(&model.StockReservation{}).
		Where("id = ? AND status = ?", id, model.ReservationReleased).
		Updates(map[string]any{"status": model.ReservationActive, "amount": amount})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
