package repository

import (
	"context"
	"errors"

	"inventory/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 登録済みの (product, location) に再登録しようとしたとき
var ErrConflict = errors.New("conflict")

// 在庫レコードと調整履歴の永続化を約束。
// 数量を動かすメソッドは同一レコードに対して直列化される前提
// （条件付きUPDATE一発、またはトランザクション内の行ロック）。
type InventoryRepository interface {
	Create(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error)
	FindByProductAndLocation(ctx context.Context, productID, locationID string) (model.InventoryRecord, error)
	ListByProduct(ctx context.Context, productID string) ([]model.InventoryRecord, error)

	// 発注点を割っているレコード。不足が大きい順。
	ListLowStock(ctx context.Context, limit int) ([]model.InventoryRecord, error)

	// 発注点・発注数量だけ更新（数量には触らない）
	UpdateReorderLevels(ctx context.Context, productID, locationID string, reorderPoint, reorderQuantity int64) error

	// available が足りるときだけ available -= qty, reserved += qty。
	// 足りなければ false（レコードは変更しない）。
	ReserveStockIfEnough(ctx context.Context, productID, locationID string, qty int64) (bool, error)

	// 予約の解放。reserved -= qty, available += qty。
	ReleaseStock(ctx context.Context, productID, locationID string, qty int64) error

	// 予約の消費（出荷確定）。reserved -= qty のみ。available には戻さない。
	ConsumeStock(ctx context.Context, productID, locationID string, qty int64) error

	// available + delta >= 0 のときだけ適用。reserved には触らない。
	// 負になるなら false（レコードは変更しない）。
	AdjustStockIfEnough(ctx context.Context, productID, locationID string, delta int64) (bool, error)

	// 調整履歴の追記
	CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error
	ListAdjustments(ctx context.Context, productID string, limit int) ([]model.InventoryAdjustment, error)
}
