package repository

import (
	"context"
	"time"

	"inventory/internal/domain/model"
)

// 予約の一覧検索
type ReservationListQuery struct {
	OrderID   string
	ProductID string
	Status    model.ReservationStatus
	Limit     int
	Offset    int
}

// 予約の永続化を約束。
type ReservationRepository interface {
	Create(ctx context.Context, r model.Reservation) error
	FindByID(ctx context.Context, id string) (model.Reservation, error)

	// 新しい順
	List(ctx context.Context, q ReservationListQuery) ([]model.Reservation, error)

	// status=active かつ expires_at <= now
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error)

	// active のときだけ to へ遷移させる。遷移できなければ false。
	// 終端状態の上書きをDB側でも防ぐ。
	MarkIfActive(ctx context.Context, id string, to model.ReservationStatus) (bool, error)
}
