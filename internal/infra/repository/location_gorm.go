package repository

import (
	"context"
	"errors"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type LocationGormRepository struct {
	db *gorm.DB
}

func NewLocationGormRepository(db *gorm.DB) *LocationGormRepository {
	return &LocationGormRepository{db: db}
}

func (r *LocationGormRepository) Create(ctx context.Context, l model.Location) error {
	if err := r.db.WithContext(ctx).Create(&l).Error; err != nil {
		return err
	}
	return nil
}

func (r *LocationGormRepository) FindByID(ctx context.Context, id string) (model.Location, error) {
	var l model.Location
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Location{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Location{}, err
	}
	return l, nil
}

func (r *LocationGormRepository) List(ctx context.Context) ([]model.Location, error) {
	var ls []model.Location
	if err := r.db.WithContext(ctx).Order("name").Find(&ls).Error; err != nil {
		return nil, err
	}
	return ls, nil
}
