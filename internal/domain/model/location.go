package model

import "time"

// 拠点の種類
type LocationType string

const (
	LocationTypeWarehouse LocationType = "warehouse"
	LocationTypeStore     LocationType = "store"
	LocationTypeOnline    LocationType = "online"
	LocationTypeDropship  LocationType = "dropship"
)

func (t LocationType) Valid() bool {
	switch t {
	case LocationTypeWarehouse, LocationTypeStore, LocationTypeOnline, LocationTypeDropship:
		return true
	}
	return false
}

// 在庫を持つ拠点（倉庫・店舗など）。
// 在庫から参照されたら削除せず active=false で無効化する。
type Location struct {
	ID        string       `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string       `gorm:"type:varchar(255);not null;index" json:"name"`
	Address   string       `gorm:"type:text" json:"address"`
	Type      LocationType `gorm:"type:varchar(20);not null;index:ix_locations_type_active" json:"type"`
	Active    bool         `gorm:"not null;default:true;index:ix_locations_type_active" json:"active"`
	CreatedAt time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
