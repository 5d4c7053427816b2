package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// InventoryItem is a rentable catalog entry. Name and category are stored
// encrypted; sizes carry the per-size stock counts.
type InventoryItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	NameCipher     string          `gorm:"column:name_cipher;not null"`
	CategoryCipher string          `gorm:"column:category_cipher;not null"`
	Tags           pq.StringArray  `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	ImageURL       *string         `gorm:"column:image_url"`
	Sizes          []InventorySize `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (InventoryItem) TableName() string { return "inventory_items" }
