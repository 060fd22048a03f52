package repository

import (
	"context"
	"errors"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

func (r *InventoryGormRepository) Create(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error) {
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		//(product, location) のユニーク制約違反
		if isDuplicateKey(err) {
			return model.InventoryRecord{}, repo.ErrConflict
		}
		return model.InventoryRecord{}, err
	}
	return rec, nil
}

func (r *InventoryGormRepository) FindByProductAndLocation(ctx context.Context, productID, locationID string) (model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND location_id = ?", productID, locationID).
		First(&rec).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.InventoryRecord{}, repo.ErrNotFound
	}
	if err != nil {
		return model.InventoryRecord{}, err
	}
	return rec, nil
}

func (r *InventoryGormRepository) ListByProduct(ctx context.Context, productID string) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("location_id").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// 不足が大きい順、同率なら product_id で安定
func (r *InventoryGormRepository) ListLowStock(ctx context.Context, limit int) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("quantity_available <= reorder_point").
		Order("(reorder_point - quantity_available) DESC, product_id").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *InventoryGormRepository) UpdateReorderLevels(ctx context.Context, productID, locationID string, reorderPoint, reorderQuantity int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("product_id = ? AND location_id = ?", productID, locationID).
		Updates(map[string]any{
			"reorder_point":    reorderPoint,
			"reorder_quantity": reorderQuantity,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 在庫が足りるときだけ予約へ移す。
// 条件付きUPDATE一発なので、同じ行への同時実行はDB側で直列化される。
func (r *InventoryGormRepository) ReserveStockIfEnough(ctx context.Context, productID, locationID string, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("product_id = ? AND location_id = ? AND quantity_available >= ?", productID, locationID, qty).
		Updates(map[string]any{
			"quantity_available": gorm.Expr("quantity_available - ?", qty),
			"quantity_reserved":  gorm.Expr("quantity_reserved + ?", qty),
		})

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 予約戻し（解放・期限切れ）
func (r *InventoryGormRepository) ReleaseStock(ctx context.Context, productID, locationID string, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("product_id = ? AND location_id = ? AND quantity_reserved >= ?", productID, locationID, qty).
		Updates(map[string]any{
			"quantity_available": gorm.Expr("quantity_available + ?", qty),
			"quantity_reserved":  gorm.Expr("quantity_reserved - ?", qty),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 予約の消費。available には戻さない。
func (r *InventoryGormRepository) ConsumeStock(ctx context.Context, productID, locationID string, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("product_id = ? AND location_id = ? AND quantity_reserved >= ?", productID, locationID, qty).
		Update("quantity_reserved", gorm.Expr("quantity_reserved - ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// available が負にならないときだけ delta を適用
func (r *InventoryGormRepository) AdjustStockIfEnough(ctx context.Context, productID, locationID string, delta int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("product_id = ? AND location_id = ? AND quantity_available + ? >= 0", productID, locationID, delta).
		Update("quantity_available", gorm.Expr("quantity_available + ?", delta))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}

func (r *InventoryGormRepository) ListAdjustments(ctx context.Context, productID string, limit int) ([]model.InventoryAdjustment, error) {
	var adjs []model.InventoryAdjustment
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&adjs).Error
	if err != nil {
		return nil, err
	}
	return adjs, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	//unique_violation
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
