package availability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/db/models"
)

func setupAvailabilityTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sizes := `
CREATE TABLE IF NOT EXISTS inventory_sizes (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  title_cipher TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0,
  on_hand INTEGER NOT NULL DEFAULT 0,
  price NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  order_date DATETIME NOT NULL,
  expected_return_date DATETIME NOT NULL,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  inventory_item_id TEXT,
  size_cipher TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  is_extension INTEGER NOT NULL DEFAULT 0,
  is_custom INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(sizes).Error)
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func seedReservation(t *testing.T, db *gorm.DB, itemID *uuid.UUID, sizeCipher string, qty int, from, to string) *models.OrderItem {
	t.Helper()

	order := &models.Order{
		ID:                 uuid.New(),
		CustomerID:         uuid.New(),
		OrderDate:          day(from),
		ExpectedReturnDate: day(to),
	}
	require.NoError(t, db.Create(order).Error)

	item := &models.OrderItem{
		ID:              uuid.New(),
		OrderID:         order.ID,
		InventoryItemID: itemID,
		SizeCipher:      sizeCipher,
		Quantity:        qty,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestRepositorySizesByItem(t *testing.T) {
	db := setupAvailabilityTestDB(t)
	repo := NewRepository(db)

	itemID := uuid.New()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"enc:S", "enc:M", "enc:L"} {
		size := &models.InventorySize{
			ID:          uuid.New(),
			ItemID:      itemID,
			TitleCipher: title,
			OnHand:      i + 1,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(size).Error)
	}
	require.NoError(t, db.Create(&models.InventorySize{
		ID: uuid.New(), ItemID: uuid.New(), TitleCipher: "enc:other", OnHand: 9,
	}).Error)

	rows, err := repo.SizesByItem(context.Background(), itemID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "enc:S", rows[0].TitleCipher)
	assert.Equal(t, "enc:M", rows[1].TitleCipher)
	assert.Equal(t, "enc:L", rows[2].TitleCipher)
}

func TestRepositoryOverlappingOrderItems(t *testing.T) {
	db := setupAvailabilityTestDB(t)
	repo := NewRepository(db)

	itemID := uuid.New()
	otherItemID := uuid.New()

	inside := seedReservation(t, db, &itemID, "enc:M", 2, "2026-07-01", "2026-07-05")
	touching := seedReservation(t, db, &itemID, "enc:M", 1, "2026-07-05", "2026-07-09")
	seedReservation(t, db, &itemID, "enc:M", 3, "2026-07-10", "2026-07-12")
	seedReservation(t, db, &otherItemID, "enc:M", 4, "2026-07-01", "2026-07-05")
	seedReservation(t, db, nil, "enc:custom", 1, "2026-07-01", "2026-07-05")

	rows, err := repo.OverlappingOrderItems(context.Background(), itemID, day("2026-07-04"), day("2026-07-06"), 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, inside.ID, rows[0].OrderItemID)
	assert.Equal(t, 2, rows[0].Quantity)
	assert.Equal(t, touching.ID, rows[1].OrderItemID)
}

func TestRepositoryOverlappingOrderItems_paging(t *testing.T) {
	db := setupAvailabilityTestDB(t)
	repo := NewRepository(db)

	itemID := uuid.New()
	for i := 0; i < 5; i++ {
		from := fmt.Sprintf("2026-08-0%d", i+1)
		seedReservation(t, db, &itemID, "enc:M", 1, from, "2026-08-20")
	}

	first, err := repo.OverlappingOrderItems(context.Background(), itemID, day("2026-08-10"), day("2026-08-15"), 0, 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	rest, err := repo.OverlappingOrderItems(context.Background(), itemID, day("2026-08-10"), day("2026-08-15"), 2, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 3)

	past, err := repo.OverlappingOrderItems(context.Background(), itemID, day("2026-08-10"), day("2026-08-15"), 5, 10)
	require.NoError(t, err)
	assert.Empty(t, past)
}
