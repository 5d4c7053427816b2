package inventory

import (
	"context"

	"gorm.io/gorm"

	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/db/models"
)

// Repository owns catalog persistence. Names and categories are encrypted,
// so matching cannot be pushed into SQL; the repository only pages rows in
// recency order and the service decides what matches.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ItemsPage loads one batch of catalog items, newest first, with their
// stock records.
func (r *Repository) ItemsPage(ctx context.Context, offset, limit int) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB {
			return db.Order("inventory_sizes.created_at ASC")
		}).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).
		Error
	return items, err
}
