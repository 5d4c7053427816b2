package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderWarning flags that an order item's allocation is (or was) part of an
// oversold window. Created once per order item on detection; resolution is a
// manual, reversible toggle and the row persists as an audit trail even if
// the oversell condition later disappears.
type OrderWarning struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID      uuid.UUID  `gorm:"column:order_item_id;type:uuid;not null;uniqueIndex"`
	Resolved         bool       `gorm:"column:resolved;not null;default:false"`
	ResolvedByUserID *uuid.UUID `gorm:"column:resolved_by_user_id;type:uuid"`
	ResolvedAt       *time.Time `gorm:"column:resolved_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (OrderWarning) TableName() string { return "order_warnings" }
