package usecase

import (
	"context"
	"net/http"
	"time"

	"inventory/internal/domain/model"
	"inventory/internal/metrics"
	repo "inventory/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 期限切れ処理の1バッチ
const expireBatchSize = 500

// 予約の作成と状態遷移。在庫の確保・解放は必ず同一トランザクションで行う。
type ReservationUsecase struct {
	tx      repo.TransactionManager
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewReservationUsecase(tx repo.TransactionManager, logger *zap.Logger, m *metrics.Metrics) *ReservationUsecase {
	return &ReservationUsecase{tx: tx, logger: logger, metrics: m}
}

type ReserveInput struct {
	ProductID  string
	LocationID string
	OrderID    string
	Quantity   int64
	TTLMinutes int
}

type ReservationOutput struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	LocationID string    `json:"location_id"`
	OrderID    string    `json:"order_id"`
	Quantity   int64     `json:"quantity"`
	Status     string    `json:"status"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReserveOutput struct {
	Reservation ReservationOutput     `json:"reservation"`
	Record      model.InventoryRecord `json:"record"`
}

func (u *ReservationUsecase) Reserve(ctx context.Context, in ReserveInput) (ReserveOutput, error) {
	if _, err := uuid.Parse(in.ProductID); err != nil {
		return ReserveOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if _, err := uuid.Parse(in.LocationID); err != nil {
		return ReserveOutput{}, NewHTTPError(http.StatusBadRequest, "invalid location_id")
	}
	if _, err := uuid.Parse(in.OrderID); err != nil {
		return ReserveOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}
	if in.Quantity <= 0 {
		return ReserveOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be > 0")
	}
	if in.TTLMinutes <= 0 {
		return ReserveOutput{}, NewHTTPError(http.StatusBadRequest, "expires_minutes must be > 0")
	}

	var out ReserveOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//対象レコードの存在確認
		if _, err := r.Inventory().FindByProductAndLocation(ctx, in.ProductID, in.LocationID); err != nil {
			if err == repo.ErrNotFound {
				return errNotFound()
			}
			return errStoreUnavailable()
		}

		//在庫確保（足りないなら false、行は変わらない）
		ok, err := r.Inventory().ReserveStockIfEnough(ctx, in.ProductID, in.LocationID, in.Quantity)
		if err != nil {
			return errStoreUnavailable()
		}
		if !ok {
			return errInsufficientStock()
		}

		now := time.Now()
		rv := model.Reservation{
			ID:         uuid.NewString(),
			ProductID:  in.ProductID,
			LocationID: in.LocationID,
			OrderID:    in.OrderID,
			Quantity:   in.Quantity,
			Status:     model.ReservationStatusActive,
			ExpiresAt:  now.Add(time.Duration(in.TTLMinutes) * time.Minute),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := r.Reservations().Create(ctx, rv); err != nil {
			return errStoreUnavailable()
		}

		//確保後のスナップショット
		rec, err := r.Inventory().FindByProductAndLocation(ctx, in.ProductID, in.LocationID)
		if err != nil {
			return errStoreUnavailable()
		}

		out = ReserveOutput{Reservation: toReservationOutput(rv), Record: rec}
		return nil
	})

	if err != nil {
		u.metrics.ReservationsTotal.WithLabelValues(reserveOutcome(err)).Inc()
		return ReserveOutput{}, err
	}

	u.metrics.ReservationsTotal.WithLabelValues("reserved").Inc()
	u.logger.Info("inventory reserved",
		zap.String("reservation_id", out.Reservation.ID),
		zap.String("product_id", in.ProductID),
		zap.String("location_id", in.LocationID),
		zap.String("order_id", in.OrderID),
		zap.Int64("quantity", in.Quantity),
		zap.Int64("new_available", out.Record.QuantityAvailable),
		zap.Int64("new_reserved", out.Record.QuantityReserved),
	)
	return out, nil
}

// 明示的な解放。数量は available に戻る。
func (u *ReservationUsecase) Release(ctx context.Context, reservationID string) (ReservationOutput, error) {
	return u.transition(ctx, reservationID, model.ReservationStatusReleased)
}

// 出荷確定。数量は reserved から消えるだけで戻らない。
func (u *ReservationUsecase) Complete(ctx context.Context, reservationID string) (ReservationOutput, error) {
	return u.transition(ctx, reservationID, model.ReservationStatusCompleted)
}

func (u *ReservationUsecase) transition(ctx context.Context, reservationID string, to model.ReservationStatus) (ReservationOutput, error) {
	if _, err := uuid.Parse(reservationID); err != nil {
		return ReservationOutput{}, NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	var out ReservationOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rv, err := r.Reservations().FindByID(ctx, reservationID)
		if err == repo.ErrNotFound {
			return errNotFound()
		}
		if err != nil {
			return errStoreUnavailable()
		}
		if rv.Status != model.ReservationStatusActive {
			//二重解放・二重完了はここで拒否
			return errInvalidState(string(rv.Status))
		}

		ok, err := r.Reservations().MarkIfActive(ctx, reservationID, to)
		if err != nil {
			return errStoreUnavailable()
		}
		if !ok {
			return errInvalidState(string(rv.Status))
		}

		switch to {
		case model.ReservationStatusCompleted:
			err = r.Inventory().ConsumeStock(ctx, rv.ProductID, rv.LocationID, rv.Quantity)
		default:
			err = r.Inventory().ReleaseStock(ctx, rv.ProductID, rv.LocationID, rv.Quantity)
		}
		if err != nil {
			return errStoreUnavailable()
		}

		rv.Status = to
		out = toReservationOutput(rv)
		return nil
	})

	if err != nil {
		u.metrics.ReservationTransitionsTotal.WithLabelValues("rejected").Inc()
		return ReservationOutput{}, err
	}

	u.metrics.ReservationTransitionsTotal.WithLabelValues(string(to)).Inc()
	u.logger.Info("reservation transitioned",
		zap.String("reservation_id", reservationID),
		zap.String("status", string(to)),
		zap.Int64("quantity", out.Quantity),
	)
	return out, nil
}

// 期限の切れた active 予約を expired に落として在庫を戻す。
// 1件ずつ独立したトランザクションで処理するので、途中の失敗は他に波及しない。
// active でなくなっていたものは黙ってスキップする（再実行しても安全）。
func (u *ReservationUsecase) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	count := 0

	for {
		var due []model.Reservation
		err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			var err error
			due, err = r.Reservations().ListDue(ctx, now, expireBatchSize)
			return err
		})
		if err != nil {
			return count, errStoreUnavailable()
		}
		if len(due) == 0 {
			break
		}

		progressed := 0
		for _, rv := range due {
			expired := false
			err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
				ok, err := r.Reservations().MarkIfActive(ctx, rv.ID, model.ReservationStatusExpired)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := r.Inventory().ReleaseStock(ctx, rv.ProductID, rv.LocationID, rv.Quantity); err != nil {
					return err
				}
				expired = true
				return nil
			})
			if err != nil {
				//1件の失敗で掃除全体を止めない
				u.logger.Warn("failed to expire reservation",
					zap.String("reservation_id", rv.ID),
					zap.Error(err),
				)
				continue
			}
			if expired {
				count++
				progressed++
			}
		}

		if len(due) < expireBatchSize {
			break
		}
		if progressed == 0 {
			//全件失敗のまま回り続けない
			break
		}
	}

	if count > 0 {
		u.metrics.ExpiredSweepTotal.Add(float64(count))
		u.logger.Info("expired reservations swept", zap.Int("count", count))
	}
	return count, nil
}

func (u *ReservationUsecase) GetReservation(ctx context.Context, reservationID string) (ReservationOutput, error) {
	if _, err := uuid.Parse(reservationID); err != nil {
		return ReservationOutput{}, NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}

	var out ReservationOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rv, err := r.Reservations().FindByID(ctx, reservationID)
		if err == repo.ErrNotFound {
			return errNotFound()
		}
		if err != nil {
			return errStoreUnavailable()
		}
		out = toReservationOutput(rv)
		return nil
	})

	if err != nil {
		return ReservationOutput{}, err
	}
	return out, nil
}

type ListReservationsInput struct {
	OrderID   string
	ProductID string
	Status    string
	Limit     int
	Offset    int
}

func (u *ReservationUsecase) ListReservations(ctx context.Context, in ListReservationsInput) ([]ReservationOutput, error) {
	if in.Limit < 1 || in.Limit > 500 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	if in.OrderID != "" {
		if _, err := uuid.Parse(in.OrderID); err != nil {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid order_id")
		}
	}
	if in.ProductID != "" {
		if _, err := uuid.Parse(in.ProductID); err != nil {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
	}
	if in.Status != "" && !model.ReservationStatus(in.Status).Valid() {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var outs []ReservationOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rvs, err := r.Reservations().List(ctx, repo.ReservationListQuery{
			OrderID:   in.OrderID,
			ProductID: in.ProductID,
			Status:    model.ReservationStatus(in.Status),
			Limit:     in.Limit,
			Offset:    in.Offset,
		})
		if err != nil {
			return errStoreUnavailable()
		}

		outs = make([]ReservationOutput, 0, len(rvs))
		for _, rv := range rvs {
			outs = append(outs, toReservationOutput(rv))
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return outs, nil
}

// 掃除対象の確認用。状態は変えない。
func (u *ReservationUsecase) GetExpiredReservations(ctx context.Context, limit int) ([]ReservationOutput, error) {
	if limit < 1 || limit > 500 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []ReservationOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rvs, err := r.Reservations().ListDue(ctx, time.Now(), limit)
		if err != nil {
			return errStoreUnavailable()
		}

		outs = make([]ReservationOutput, 0, len(rvs))
		for _, rv := range rvs {
			outs = append(outs, toReservationOutput(rv))
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return outs, nil
}

func toReservationOutput(rv model.Reservation) ReservationOutput {
	return ReservationOutput{
		ID:         rv.ID,
		ProductID:  rv.ProductID,
		LocationID: rv.LocationID,
		OrderID:    rv.OrderID,
		Quantity:   rv.Quantity,
		Status:     string(rv.Status),
		ExpiresAt:  rv.ExpiresAt,
		CreatedAt:  rv.CreatedAt,
	}
}

func reserveOutcome(err error) string {
	he, ok := AsHTTPError(err)
	if !ok {
		return "error"
	}
	switch he.Status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "insufficient_stock"
	default:
		return "error"
	}
}
