package warnings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/db/models"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/pagination"
)

// OverlapRow is an order item sharing the queried item whose order window
// overlaps the queried window, joined with the customer for display.
type OverlapRow struct {
	OrderItemID        uuid.UUID
	OrderID            uuid.UUID
	CustomerName       string
	SizeCipher         string
	Quantity           int
	OrderDate          time.Time
	ExpectedReturnDate time.Time
}

// WarningRow is a warning joined with its order item, order and customer.
type WarningRow struct {
	WarningID          uuid.UUID
	OrderItemID        uuid.UUID
	OrderID            uuid.UUID
	CustomerName       string
	SizeCipher         string
	Quantity           int
	OrderDate          time.Time
	ExpectedReturnDate time.Time
	Resolved           bool
	ResolvedByUserID   *uuid.UUID
	ResolvedByName     *string
	ResolvedAt         *time.Time
	WarningCreatedAt   time.Time
}

// Repository owns persistence for order warnings.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateIfAbsent inserts a warning for the order item unless one already
// exists. A warning is created exactly once per order item and never
// auto-deleted, so the unique index carries the dedupe.
func (r *Repository) CreateIfAbsent(ctx context.Context, orderItemID uuid.UUID) (bool, error) {
	warning := models.OrderWarning{
		ID:          uuid.New(),
		OrderItemID: orderItemID,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_item_id"}},
			DoNothing: true,
		}).
		Create(&warning)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByID loads a warning row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.OrderWarning, error) {
	var warning models.OrderWarning
	if err := r.db.WithContext(ctx).First(&warning, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &warning, nil
}

// FindByOrderItem loads the warning attached to an order item.
func (r *Repository) FindByOrderItem(ctx context.Context, orderItemID uuid.UUID) (*models.OrderWarning, error) {
	var warning models.OrderWarning
	if err := r.db.WithContext(ctx).First(&warning, "order_item_id = ?", orderItemID).Error; err != nil {
		return nil, err
	}
	return &warning, nil
}

// MarkResolved flips an open warning to resolved. Returns false without
// error when the warning was already resolved, which keeps redundant calls
// from touching resolved_at.
func (r *Repository) MarkResolved(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderWarning{}).
		Where("id = ? AND resolved = ?", id, false).
		Updates(map[string]any{
			"resolved":            true,
			"resolved_by_user_id": userID,
			"resolved_at":         at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkUnresolved reopens a resolved warning, clearing the resolution audit
// fields. Returns false when the warning was already open.
func (r *Repository) MarkUnresolved(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderWarning{}).
		Where("id = ? AND resolved = ?", id, true).
		Updates(map[string]any{
			"resolved":            false,
			"resolved_by_user_id": nil,
			"resolved_at":         nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// OverlappingForItem lists every order item of the item whose order window
// overlaps [from, to], regardless of size; size matching happens in the
// service after decryption.
func (r *Repository) OverlappingForItem(ctx context.Context, itemID uuid.UUID, from, to time.Time) ([]OverlapRow, error) {
	var rows []OverlapRow
	err := r.db.WithContext(ctx).
		Table("order_items oi").
		Select("oi.id AS order_item_id, oi.order_id, c.name AS customer_name, oi.size_cipher, oi.quantity, o.order_date, o.expected_return_date").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("JOIN customers c ON c.id = o.customer_id").
		Where("oi.inventory_item_id = ?", itemID).
		Where("o.order_date <= ? AND o.expected_return_date >= ?", to, from).
		Order("o.order_date ASC").
		Order("oi.id ASC").
		Scan(&rows).
		Error
	return rows, err
}

// ListWarnings pages through warnings joined with their orders. resolved is
// tri-state: nil lists everything.
func (r *Repository) ListWarnings(ctx context.Context, params pagination.Params, resolved *bool) ([]WarningRow, int, error) {
	params = pagination.Normalize(params)

	base := r.db.WithContext(ctx).
		Table("order_warnings w").
		Joins("JOIN order_items oi ON oi.id = w.order_item_id").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Joins("JOIN customers c ON c.id = o.customer_id").
		Joins("LEFT JOIN users u ON u.id = w.resolved_by_user_id")
	if resolved != nil {
		base = base.Where("w.resolved = ?", *resolved)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []WarningRow
	err := base.Session(&gorm.Session{}).
		Select("w.id AS warning_id, w.order_item_id, oi.order_id, c.name AS customer_name, oi.size_cipher, oi.quantity, o.order_date, o.expected_return_date, w.resolved, w.resolved_by_user_id, u.display_name AS resolved_by_name, w.resolved_at, w.created_at AS warning_created_at").
		Order("w.created_at DESC").
		Order("w.id DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Scan(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, int(total), nil
}
