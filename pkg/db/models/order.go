package models

import (
	"time"

	"github.com/google/uuid"
)

// Order owns the reservation window [OrderDate, ExpectedReturnDate],
// inclusive on both ends. Status and payment fields live outside this core.
type Order struct {
	ID                 uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID         uuid.UUID   `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderDate          time.Time   `gorm:"column:order_date;type:date;not null"`
	ExpectedReturnDate time.Time   `gorm:"column:expected_return_date;type:date;not null"`
	Notes              *string     `gorm:"column:notes"`
	Items              []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }
