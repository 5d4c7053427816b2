package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the minimal customer surface this core reads (names shown on
// affected-order payloads). Full customer CRUD lives outside this service.
type Customer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Phone     *string   `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Customer) TableName() string { return "customers" }
