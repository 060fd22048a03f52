package model

import "time"

// 在庫調整の種類
type AdjustmentType string

const (
	AdjustmentTypeRestock    AdjustmentType = "restock"
	AdjustmentTypeDamage     AdjustmentType = "damage"
	AdjustmentTypeTheft      AdjustmentType = "theft"
	AdjustmentTypeCorrection AdjustmentType = "correction"
	AdjustmentTypeReturn     AdjustmentType = "return"
	AdjustmentTypeManual     AdjustmentType = "manual"
)

func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentTypeRestock, AdjustmentTypeDamage, AdjustmentTypeTheft,
		AdjustmentTypeCorrection, AdjustmentTypeReturn, AdjustmentTypeManual:
		return true
	}
	return false
}

// 在庫調整の履歴。追記専用で、作成後は更新も削除もしない。
// 「誰が」「どの在庫を」「いくつ」「なぜ」動かしたかと、適用後の残高を残す。
type InventoryAdjustment struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID  string `gorm:"type:uuid;not null;index:ix_adjustments_product_type" json:"product_id"`
	LocationID string `gorm:"type:uuid;not null;index" json:"location_id"`

	Delta int64          `gorm:"not null" json:"delta"`
	Type  AdjustmentType `gorm:"type:varchar(20);not null;index:ix_adjustments_product_type" json:"type"`

	Reason    string `gorm:"type:varchar(255)" json:"reason"`
	CreatedBy string `gorm:"type:varchar(255);not null" json:"created_by"`

	//適用直後の quantity_available
	ResultingBalance int64 `gorm:"not null" json:"resulting_balance"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
