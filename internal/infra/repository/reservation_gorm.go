package repository

import (
	"context"
	"errors"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type ReservationGormRepository struct {
	db *gorm.DB
}

func NewReservationGormRepository(db *gorm.DB) *ReservationGormRepository {
	return &ReservationGormRepository{db: db}
}

func (r *ReservationGormRepository) Create(ctx context.Context, rv model.Reservation) error {
	if err := r.db.WithContext(ctx).Create(&rv).Error; err != nil {
		return err
	}
	return nil
}

func (r *ReservationGormRepository) FindByID(ctx context.Context, id string) (model.Reservation, error) {
	var rv model.Reservation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rv).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Reservation{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}
	return rv, nil
}

func (r *ReservationGormRepository) List(ctx context.Context, q repo.ReservationListQuery) ([]model.Reservation, error) {
	db := r.db.WithContext(ctx).Model(&model.Reservation{})

	if q.OrderID != "" {
		db = db.Where("order_id = ?", q.OrderID)
	}
	if q.ProductID != "" {
		db = db.Where("product_id = ?", q.ProductID)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}

	var rvs []model.Reservation
	err := db.Order("created_at DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&rvs).Error
	if err != nil {
		return nil, err
	}
	return rvs, nil
}

// 期限切れ処理の対象
func (r *ReservationGormRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
	var rvs []model.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", model.ReservationStatusActive, now).
		Order("expires_at").
		Limit(limit).
		Find(&rvs).Error
	if err != nil {
		return nil, err
	}
	return rvs, nil
}

// active のときだけ遷移。条件付きUPDATEなので二重解放はここで弾かれる。
func (r *ReservationGormRepository) MarkIfActive(ctx context.Context, id string, to model.ReservationStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND status = ?", id, model.ReservationStatusActive).
		Update("status", to)

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}
