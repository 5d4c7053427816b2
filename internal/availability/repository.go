package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/db/models"
)

// Repository is the read-only persistence surface behind the calculator.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SizesByItem loads all stock records of the item.
func (r *Repository) SizesByItem(ctx context.Context, itemID uuid.UUID) ([]models.InventorySize, error) {
	var rows []models.InventorySize
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// OverlappingOrderItems pages through order items of the item whose owning
// order's window overlaps [from, to]. Custom/extension items carry a NULL
// inventory reference, so the item filter excludes them implicitly.
func (r *Repository) OverlappingOrderItems(ctx context.Context, itemID uuid.UUID, from, to time.Time, offset, limit int) ([]ReservationRow, error) {
	var rows []ReservationRow
	err := r.db.WithContext(ctx).
		Table("order_items oi").
		Select("oi.id AS order_item_id, oi.order_id, oi.size_cipher, oi.quantity, o.order_date, o.expected_return_date").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("oi.inventory_item_id = ?", itemID).
		Where("o.order_date <= ? AND o.expected_return_date >= ?", to, from).
		Order("o.order_date ASC").
		Order("oi.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).
		Error
	return rows, err
}
