package model

import "time"

// 商品×拠点ごとの在庫。
// available と reserved は別プールで管理する（available は予約分を含まない）。
// どちらも常に 0 以上。
type InventoryRecord struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID  string `gorm:"type:uuid;not null;uniqueIndex:ux_inventory_product_location;index" json:"product_id"`
	LocationID string `gorm:"type:uuid;not null;uniqueIndex:ux_inventory_product_location" json:"location_id"`

	QuantityAvailable int64 `gorm:"not null;default:0" json:"quantity_available"`
	QuantityReserved  int64 `gorm:"not null;default:0" json:"quantity_reserved"`

	//発注点と発注数量
	ReorderPoint    int64 `gorm:"not null;default:10" json:"reorder_point"`
	ReorderQuantity int64 `gorm:"not null;default:100" json:"reorder_quantity"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (InventoryRecord) TableName() string {
	return "inventory_records"
}

// available + reserved
func (r InventoryRecord) TotalQuantity() int64 {
	return r.QuantityAvailable + r.QuantityReserved
}

// 発注点を割っているか
func (r InventoryRecord) IsLowStock() bool {
	return r.QuantityAvailable <= r.ReorderPoint
}
