package repository

import (
	"context"

	"inventory/internal/domain/model"
)

// 拠点の参照。ライフサイクル管理は別システムの持ち物なので
// ここでは登録と参照だけを約束する。
type LocationRepository interface {
	Create(ctx context.Context, l model.Location) error
	FindByID(ctx context.Context, id string) (model.Location, error)
	List(ctx context.Context) ([]model.Location, error)
}
