package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem reserves stock of one item+size for the owning order's window.
// Custom and extension items carry no inventory reference and are excluded
// from availability accounting. The size label is independently encrypted
// and may use different separator or case conventions than the matching
// InventorySize title.
type OrderItem struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	InventoryItemID *uuid.UUID `gorm:"column:inventory_item_id;type:uuid;index"`
	SizeCipher      string     `gorm:"column:size_cipher;not null"`
	Quantity        int        `gorm:"column:quantity;not null"`
	IsExtension     bool       `gorm:"column:is_extension;not null;default:false"`
	IsCustom        bool       `gorm:"column:is_custom;not null;default:false"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }
