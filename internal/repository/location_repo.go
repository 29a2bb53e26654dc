package repository

import (
	"context"
	"time"

	"stockroom/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LocationRepository interface {
	Create(ctx context.Context, l *model.Location) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error)
	List(ctx context.Context, includeInactive bool) ([]model.Location, error)
	Update(ctx context.Context, l *model.Location) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// Stock records
	FindStock(ctx context.Context, locationID, productID uuid.UUID) (*model.LocationStock, error)
	ListStockByLocation(ctx context.Context, locationID uuid.UUID) ([]model.LocationStock, error)
	ListAllStock(ctx context.Context) ([]model.LocationStock, error)
	UpdateStockMin(ctx context.Context, id uuid.UUID, minStock *int) error

	// GetOrCreateStockTx returns the (location, product) row locked FOR UPDATE,
	// creating it with zero stock when it does not exist yet.
	GetOrCreateStockTx(tx *gorm.DB, locationID, productID uuid.UUID) (*model.LocationStock, error)

	// IncrementStockTx adds transferred units and stamps last_restock_at.
	IncrementStockTx(tx *gorm.DB, id uuid.UUID, amount int, at time.Time) error
}

type locationRepo struct{ db *gorm.DB }

func NewLocationRepository(db *gorm.DB) LocationRepository { return &locationRepo{db: db} }

func (r *locationRepo) Create(ctx context.Context, l *model.Location) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *locationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var l model.Location
	err := r.db.WithContext(ctx).First(&l, id).Error
	return &l, err
}

func (r *locationRepo) List(ctx context.Context, includeInactive bool) ([]model.Location, error) {
	var locations []model.Location
	q := r.db.WithContext(ctx)
	if !includeInactive {
		q = q.Where("active = true")
	}
	err := q.Order("name ASC").Find(&locations).Error
	return locations, err
}

func (r *locationRepo) Update(ctx context.Context, l *model.Location) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *locationRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Location{}).Where("id = ?", id).Update("active", false).Error
}

func (r *locationRepo) FindStock(ctx context.Context, locationID, productID uuid.UUID) (*model.LocationStock, error) {
	var ls model.LocationStock
	err := r.db.WithContext(ctx).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		First(&ls).Error
	return &ls, err
}

func (r *locationRepo) ListStockByLocation(ctx context.Context, locationID uuid.UUID) ([]model.LocationStock, error) {
	var stock []model.LocationStock
	err := r.db.WithContext(ctx).Preload("Product").
		Where("location_id = ?", locationID).Find(&stock).Error
	return stock, err
}

func (r *locationRepo) ListAllStock(ctx context.Context) ([]model.LocationStock, error) {
	var stock []model.LocationStock
	err := r.db.WithContext(ctx).Preload("Product").Preload("Location").Find(&stock).Error
	return stock, err
}

func (r *locationRepo) UpdateStockMin(ctx context.Context, id uuid.UUID, minStock *int) error {
	return r.db.WithContext(ctx).Model(&model.LocationStock{}).
		Where("id = ?", id).Update("min_stock", minStock).Error
}

func (r *locationRepo) GetOrCreateStockTx(tx *gorm.DB, locationID, productID uuid.UUID) (*model.LocationStock, error) {
	var ls model.LocationStock
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		First(&ls).Error
	if err == nil {
		return &ls, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	ls = model.LocationStock{LocationID: locationID, ProductID: productID}
	// ON CONFLICT DO NOTHING + re-read under lock covers the race where two
	// transfers create the same (location, product) row at once.
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ls).Error; err != nil {
		return nil, err
	}
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("location_id = ? AND product_id = ?", locationID, productID).
		First(&ls).Error
	return &ls, err
}

func (r *locationRepo) IncrementStockTx(tx *gorm.DB, id uuid.UUID, amount int, at time.Time) error {
	return tx.Model(&model.LocationStock{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_stock":   gorm.Expr("current_stock + ?", amount),
			"last_restock_at": at,
		}).Error
}
