// models/equipment.go
package models

import "time"

const EquipmentTable = "elt_equipment"

// Equipment is one loanable equipment type. AvailableQuantity is only ever
// changed by relative updates (see db.Repo.AdjustStock), never by writing back
// a value that was read earlier.
type Equipment struct {
	ID                string    `gorm:"size:36;primaryKey" json:"id"`
	Name              string    `gorm:"size:200;not null" json:"name"`
	Code              string    `gorm:"size:120;index" json:"code"`
	Unit              string    `gorm:"size:40" json:"unit"`
	AvailableQuantity int       `gorm:"not null;default:0;check:available_quantity >= 0" json:"availableQuantity"`
	IsActive          bool      `gorm:"not null;default:true;index" json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (Equipment) TableName() string { return EquipmentTable }
