package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the staff member referenced by warning resolutions. Authentication
// and session lifecycle are owned by an external service.
type User struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DisplayName string    `gorm:"column:display_name;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string { return "users" }
