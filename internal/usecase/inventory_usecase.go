package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"inventory/internal/domain/model"
	"inventory/internal/metrics"
	repo "inventory/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 在庫レコードの登録・照会と直接調整。
// 調整は available プールだけを動かし、必ず履歴を1行残す。
type InventoryUsecase struct {
	tx      repo.TransactionManager
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewInventoryUsecase(tx repo.TransactionManager, logger *zap.Logger, m *metrics.Metrics) *InventoryUsecase {
	return &InventoryUsecase{tx: tx, logger: logger, metrics: m}
}

type CreateInventoryInput struct {
	ProductID         string
	LocationID        string
	QuantityAvailable int64

	//未指定ならデフォルト（10 / 100）
	ReorderPoint    *int64
	ReorderQuantity *int64
}

func (u *InventoryUsecase) CreateInventory(ctx context.Context, in CreateInventoryInput) (model.InventoryRecord, error) {
	if _, err := uuid.Parse(in.ProductID); err != nil {
		return model.InventoryRecord{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if _, err := uuid.Parse(in.LocationID); err != nil {
		return model.InventoryRecord{}, NewHTTPError(http.StatusBadRequest, "invalid location_id")
	}
	if in.QuantityAvailable < 0 {
		return model.InventoryRecord{}, NewHTTPError(http.StatusBadRequest, "quantity_available must be >= 0")
	}

	reorderPoint := int64(10)
	if in.ReorderPoint != nil {
		if *in.ReorderPoint < 0 {
			return model.InventoryRecord{}, NewHTTPError(http.StatusBadRequest, "reorder_point must be >= 0")
		}
		reorderPoint = *in.ReorderPoint
	}
	reorderQuantity := int64(100)
	if in.ReorderQuantity != nil {
		if *in.ReorderQuantity < 1 {
			return model.InventoryRecord{}, NewHTTPError(http.StatusBadRequest, "reorder_quantity must be >= 1")
		}
		reorderQuantity = *in.ReorderQuantity
	}

	var out model.InventoryRecord

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//拠点の存在確認。無効化済みの拠点には登録できない。
		loc, err := r.Locations().FindByID(ctx, in.LocationID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "location not found")
		}
		if err != nil {
			return errStoreUnavailable()
		}
		if !loc.Active {
			return NewHTTPError(http.StatusBadRequest, "location is inactive")
		}

		now := time.Now()
		rec, err := r.Inventory().Create(ctx, model.InventoryRecord{
			ID:                uuid.NewString(),
			ProductID:         in.ProductID,
			LocationID:        in.LocationID,
			QuantityAvailable: in.QuantityAvailable,
			ReorderPoint:      reorderPoint,
			ReorderQuantity:   reorderQuantity,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		if err == repo.ErrConflict {
			return NewHTTPError(http.StatusConflict, "inventory already exists for this product and location")
		}
		if err != nil {
			return errStoreUnavailable()
		}

		out = rec
		return nil
	})

	if err != nil {
		return model.InventoryRecord{}, err
	}

	u.logger.Info("inventory record created",
		zap.String("product_id", in.ProductID),
		zap.String("location_id", in.LocationID),
		zap.Int64("quantity_available", out.QuantityAvailable),
	)
	return out, nil
}

type UpdateInventoryInput struct {
	ProductID  string
	LocationID string

	//nil のフィールドは現状維持
	ReorderPoint    *int64
	ReorderQuantity *int64
}

// 発注点・発注数量の変更。数量には一切触らない。
func (u *InventoryUsecase) UpdateInventory(ctx context.Context, in UpdateInventoryInput) (model.InventoryRecord, error) {
	if _, err := uuid.Parse(in.ProductID); err != nil {
		return model.InventoryRecord{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if _, err := uuid.Parse(in.LocationID); err != nil {
		return model.InventoryRecord{}, NewHTTPError(http.StatusBadRequest, "invalid location_id")
	}
	if in.ReorderPoint == nil && in.ReorderQuantity == nil {
		return model.InventoryRecord{}, NewHTTPError(http.StatusBadRequest, "nothing to update")
	}
	if in.ReorderPoint != nil && *in.ReorderPoint < 0 {
		return model.InventoryRecord{}, NewHTTPError(http.StatusBadRequest, "reorder_point must be >= 0")
	}
	if in.ReorderQuantity != nil && *in.ReorderQuantity < 1 {
		return model.InventoryRecord{}, NewHTTPError(http.StatusBadRequest, "reorder_quantity must be >= 1")
	}

	var out model.InventoryRecord

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rec, err := r.Inventory().FindByProductAndLocation(ctx, in.ProductID, in.LocationID)
		if err == repo.ErrNotFound {
			return errNotFound()
		}
		if err != nil {
			return errStoreUnavailable()
		}

		point := rec.ReorderPoint
		if in.ReorderPoint != nil {
			point = *in.ReorderPoint
		}
		qty := rec.ReorderQuantity
		if in.ReorderQuantity != nil {
			qty = *in.ReorderQuantity
		}

		if err := r.Inventory().UpdateReorderLevels(ctx, in.ProductID, in.LocationID, point, qty); err != nil {
			return errStoreUnavailable()
		}

		rec.ReorderPoint = point
		rec.ReorderQuantity = qty
		out = rec
		return nil
	})

	if err != nil {
		return model.InventoryRecord{}, err
	}
	return out, nil
}

type AdjustInput struct {
	ProductID  string
	LocationID string
	Delta      int64
	Type       string
	Reason     string
	CreatedBy  string
}

type AdjustOutput struct {
	Record     model.InventoryRecord     `json:"record"`
	Adjustment model.InventoryAdjustment `json:"adjustment"`
}

// 直接調整（入荷・破損・棚卸など）。
// available にだけ delta を適用し、適用後残高つきの履歴を追記する。
// reserved はこの経路では絶対に動かさない。
func (u *InventoryUsecase) Adjust(ctx context.Context, in AdjustInput) (AdjustOutput, error) {
	if _, err := uuid.Parse(in.ProductID); err != nil {
		return AdjustOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if _, err := uuid.Parse(in.LocationID); err != nil {
		return AdjustOutput{}, NewHTTPError(http.StatusBadRequest, "invalid location_id")
	}
	if in.Delta == 0 {
		return AdjustOutput{}, NewHTTPError(http.StatusBadRequest, "quantity_change must be non-zero")
	}
	adjType := model.AdjustmentType(in.Type)
	if !adjType.Valid() {
		return AdjustOutput{}, NewHTTPError(http.StatusBadRequest, "invalid adjustment_type")
	}

	createdBy := strings.TrimSpace(in.CreatedBy)
	if createdBy == "" {
		createdBy = "api"
	}

	var out AdjustOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Inventory().FindByProductAndLocation(ctx, in.ProductID, in.LocationID); err != nil {
			if err == repo.ErrNotFound {
				return errNotFound()
			}
			return errStoreUnavailable()
		}

		//負在庫になる調整は弾く
		ok, err := r.Inventory().AdjustStockIfEnough(ctx, in.ProductID, in.LocationID, in.Delta)
		if err != nil {
			return errStoreUnavailable()
		}
		if !ok {
			return errInsufficientStock()
		}

		//適用後の残高を履歴に残す
		rec, err := r.Inventory().FindByProductAndLocation(ctx, in.ProductID, in.LocationID)
		if err != nil {
			return errStoreUnavailable()
		}

		adj := model.InventoryAdjustment{
			ID:               uuid.NewString(),
			ProductID:        in.ProductID,
			LocationID:       in.LocationID,
			Delta:            in.Delta,
			Type:             adjType,
			Reason:           strings.TrimSpace(in.Reason),
			CreatedBy:        createdBy,
			ResultingBalance: rec.QuantityAvailable,
			CreatedAt:        time.Now(),
		}
		if err := r.Inventory().CreateAdjustment(ctx, adj); err != nil {
			return errStoreUnavailable()
		}

		out = AdjustOutput{Record: rec, Adjustment: adj}
		return nil
	})

	if err != nil {
		return AdjustOutput{}, err
	}

	u.metrics.AdjustmentsTotal.WithLabelValues(string(adjType)).Inc()
	u.logger.Info("inventory adjusted",
		zap.String("product_id", in.ProductID),
		zap.String("location_id", in.LocationID),
		zap.Int64("delta", in.Delta),
		zap.String("type", string(adjType)),
		zap.String("created_by", createdBy),
		zap.Int64("resulting_balance", out.Adjustment.ResultingBalance),
	)
	return out, nil
}

type StockOutput struct {
	ProductID      string                  `json:"product_id"`
	TotalAvailable int64                   `json:"total_available"`
	TotalReserved  int64                   `json:"total_reserved"`
	Locations      []model.InventoryRecord `json:"locations"`
}

// 商品の在庫を全拠点分まとめて返す。locationID指定ならその拠点だけ。
func (u *InventoryUsecase) GetStock(ctx context.Context, productID, locationID string) (StockOutput, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return StockOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if locationID != "" {
		if _, err := uuid.Parse(locationID); err != nil {
			return StockOutput{}, NewHTTPError(http.StatusBadRequest, "invalid location_id")
		}
	}

	var out StockOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var recs []model.InventoryRecord

		if locationID != "" {
			rec, err := r.Inventory().FindByProductAndLocation(ctx, productID, locationID)
			if err == repo.ErrNotFound {
				return errNotFound()
			}
			if err != nil {
				return errStoreUnavailable()
			}
			recs = []model.InventoryRecord{rec}
		} else {
			var err error
			recs, err = r.Inventory().ListByProduct(ctx, productID)
			if err != nil {
				return errStoreUnavailable()
			}
			if len(recs) == 0 {
				return errNotFound()
			}
		}

		out = StockOutput{ProductID: productID, Locations: recs}
		for _, rec := range recs {
			out.TotalAvailable += rec.QuantityAvailable
			out.TotalReserved += rec.QuantityReserved
		}
		return nil
	})

	if err != nil {
		return StockOutput{}, err
	}
	return out, nil
}

func (u *InventoryUsecase) GetLowStock(ctx context.Context, limit int) ([]model.InventoryRecord, error) {
	if limit < 1 || limit > 500 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var recs []model.InventoryRecord

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		recs, err = r.Inventory().ListLowStock(ctx, limit)
		if err != nil {
			return errStoreUnavailable()
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []model.InventoryRecord{}
	}
	return recs, nil
}

func (u *InventoryUsecase) ListAdjustments(ctx context.Context, productID string, limit int) ([]model.InventoryAdjustment, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if limit < 1 || limit > 500 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var adjs []model.InventoryAdjustment

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		adjs, err = r.Inventory().ListAdjustments(ctx, productID, limit)
		if err != nil {
			return errStoreUnavailable()
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	if adjs == nil {
		adjs = []model.InventoryAdjustment{}
	}
	return adjs, nil
}
