package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventorySize holds the stock record for one size of an item. The size
// label is encrypted at rest and only comparable after decrypt+normalize.
// Quantity is the nominal total; OnHand is the current physical count.
type InventorySize struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID      uuid.UUID       `gorm:"column:item_id;type:uuid;not null;index"`
	TitleCipher string          `gorm:"column:title_cipher;not null"`
	Quantity    int             `gorm:"column:quantity;not null;default:0"`
	OnHand      int             `gorm:"column:on_hand;not null;default:0"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventorySize) TableName() string { return "inventory_sizes" }
