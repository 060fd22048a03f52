package model

import "time"

// 予約の状態。
// 遷移は active → completed / released / expired のみ。
// 終端状態から active に戻ることはない。
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusReleased  ReservationStatus = "released"
	ReservationStatusCompleted ReservationStatus = "completed"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusActive, ReservationStatusExpired, ReservationStatusReleased, ReservationStatusCompleted:
		return true
	}
	return false
}

// 注文に対する在庫の引き当て。
// 作成時点で InventoryRecord の available から reserved へ数量を移す。
type Reservation struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID  string `gorm:"type:uuid;not null;index:ix_reservations_product_status" json:"product_id"`
	LocationID string `gorm:"type:uuid;not null;index" json:"location_id"`
	OrderID    string `gorm:"type:uuid;not null;index:ix_reservations_order_status" json:"order_id"`

	Quantity int64             `gorm:"not null" json:"quantity"`
	Status   ReservationStatus `gorm:"type:varchar(20);not null;index:ix_reservations_order_status;index:ix_reservations_product_status;index:ix_reservations_expires_status" json:"status"`

	//期限切れ処理の対象判定に使う
	ExpiresAt time.Time `gorm:"not null;index:ix_reservations_expires_status" json:"expires_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
