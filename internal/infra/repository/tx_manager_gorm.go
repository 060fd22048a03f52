package repository

import (
	"context"

	repo "inventory/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	inventory    repo.InventoryRepository
	reservations repo.ReservationRepository
	locations    repo.LocationRepository
}

func (r *txReposGorm) Inventory() repo.InventoryRepository      { return r.inventory }
func (r *txReposGorm) Reservations() repo.ReservationRepository { return r.reservations }
func (r *txReposGorm) Locations() repo.LocationRepository       { return r.locations }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			inventory:    NewInventoryGormRepository(tx),
			reservations: NewReservationGormRepository(tx),
			locations:    NewLocationGormRepository(tx),
		}
		return fn(r)
	})
}
