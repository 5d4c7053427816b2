package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lamnguyen-dev/rentalcrm-backend/internal/warnings"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/config"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/db/models"
	pkgerrors "github.com/lamnguyen-dev/rentalcrm-backend/pkg/errors"
)

type stubCipher struct{}

func (stubCipher) Encrypt(plaintext string) (string, error) { return "enc:" + plaintext, nil }

func (stubCipher) Decrypt(ciphertext string) (string, error) {
	if len(ciphertext) < 4 || ciphertext[:4] != "enc:" {
		return "", errors.New("bad ciphertext")
	}
	return ciphertext[4:], nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	created *models.Order
	err     error
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) CreateOrder(_ context.Context, order *models.Order) error {
	if s.err != nil {
		return s.err
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	s.created = order
	return nil
}

func (s *stubRepo) FindOrder(context.Context, uuid.UUID) (*models.Order, error) {
	return s.created, nil
}

type stubCustomers struct {
	known map[uuid.UUID]bool
}

func (s stubCustomers) FindByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	if s.known[id] {
		return &models.Customer{ID: id, Name: "Ngọc"}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubStock struct {
	onHand  int
	lookups int
}

func (s *stubStock) OnHand(context.Context, uuid.UUID, string) (int, bool, error) {
	s.lookups++
	return s.onHand, s.onHand > 0, nil
}

type stubEngine struct {
	warning    *warnings.WarningInfo
	flagged    []uuid.UUID
	propagated []warnings.PropagateInput
}

func (s *stubEngine) CalculateItemWarning(context.Context, warnings.CalcInput) (*warnings.WarningInfo, error) {
	return s.warning, nil
}

func (s *stubEngine) FlagOrderItem(_ context.Context, orderItemID uuid.UUID) error {
	s.flagged = append(s.flagged, orderItemID)
	return nil
}

func (s *stubEngine) AddWarningsToAffectedOrders(_ context.Context, in warnings.PropagateInput) error {
	s.propagated = append(s.propagated, in)
	return nil
}

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

type fixture struct {
	svc        *Service
	repo       *stubRepo
	stock      *stubStock
	engine     *stubEngine
	customerID uuid.UUID
}

func newFixture(t *testing.T, onHand int, warning *warnings.WarningInfo) *fixture {
	t.Helper()
	repo := &stubRepo{}
	stock := &stubStock{onHand: onHand}
	engine := &stubEngine{warning: warning}
	customerID := uuid.New()

	svc, err := NewService(stubTx{}, repo, stubCustomers{known: map[uuid.UUID]bool{customerID: true}}, stock, engine, stubCipher{}, nil, config.SearchConfig{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{svc: svc, repo: repo, stock: stock, engine: engine, customerID: customerID}
}

func stockItem(itemID uuid.UUID, size string, qty int) PlaceItemInput {
	return PlaceItemInput{InventoryItemID: &itemID, Size: size, Quantity: qty}
}

func TestPlaceHappyPath(t *testing.T) {
	f := newFixture(t, 5, nil)
	itemID := uuid.New()

	placed, err := f.svc.Place(context.Background(), PlaceOrderInput{
		CustomerID:         f.customerID,
		OrderDate:          day("2026-01-01"),
		ExpectedReturnDate: day("2026-01-05"),
		Items:              []PlaceItemInput{stockItem(itemID, "Size S", 2)},
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if len(placed.Warnings) != 0 {
		t.Errorf("no warnings expected, got %+v", placed.Warnings)
	}
	if f.repo.created == nil {
		t.Fatal("order not persisted")
	}
	if got := f.repo.created.Items[0].SizeCipher; got != "enc:Size S" {
		t.Errorf("size must be stored encrypted, got %q", got)
	}
	if len(f.engine.flagged) != 0 || len(f.engine.propagated) != 0 {
		t.Error("warning pass must not run without an oversell")
	}
}

func TestPlaceOversellFlagsAndPropagates(t *testing.T) {
	itemID := uuid.New()
	info := &warnings.WarningInfo{ItemID: itemID, Size: "Size S", OnHand: 5, Reserved: 3, Oversold: 2}
	f := newFixture(t, 5, info)

	placed, err := f.svc.Place(context.Background(), PlaceOrderInput{
		CustomerID:         f.customerID,
		OrderDate:          day("2026-01-03"),
		ExpectedReturnDate: day("2026-01-07"),
		Items:              []PlaceItemInput{stockItem(itemID, "Size S", 4)},
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if len(placed.Warnings) != 1 || placed.Warnings[0].Oversold != 2 {
		t.Fatalf("want the oversell surfaced, got %+v", placed.Warnings)
	}

	newItemID := f.repo.created.Items[0].ID
	if len(f.engine.flagged) != 1 || f.engine.flagged[0] != newItemID {
		t.Errorf("new order item must be flagged, got %v", f.engine.flagged)
	}
	if len(f.engine.propagated) != 1 {
		t.Fatalf("retroactive pass must run once, got %d", len(f.engine.propagated))
	}
	propagated := f.engine.propagated[0]
	if propagated.NewOrderItemID == nil || *propagated.NewOrderItemID != newItemID {
		t.Errorf("pass must exclude the new item, got %+v", propagated.NewOrderItemID)
	}
	if propagated.OriginalOnHand != 5 {
		t.Errorf("pass must use the pre-order stock snapshot, got %d", propagated.OriginalOnHand)
	}
}

func TestPlaceSkipsStockChecksForCustomItems(t *testing.T) {
	f := newFixture(t, 5, nil)

	_, err := f.svc.Place(context.Background(), PlaceOrderInput{
		CustomerID:         f.customerID,
		OrderDate:          day("2026-01-01"),
		ExpectedReturnDate: day("2026-01-02"),
		Items: []PlaceItemInput{
			{Size: "custom fit", Quantity: 1, IsCustom: true},
			{Size: "Size M", Quantity: 1, IsExtension: true},
		},
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if f.stock.lookups != 0 {
		t.Errorf("custom/extension items must not hit stock, got %d lookups", f.stock.lookups)
	}
	if f.repo.created == nil || len(f.repo.created.Items) != 2 {
		t.Fatal("both items must persist")
	}
}

func TestPlaceCustomerNotFound(t *testing.T) {
	f := newFixture(t, 5, nil)

	_, err := f.svc.Place(context.Background(), PlaceOrderInput{
		CustomerID:         uuid.New(),
		OrderDate:          day("2026-01-01"),
		ExpectedReturnDate: day("2026-01-02"),
		Items:              []PlaceItemInput{stockItem(uuid.New(), "S", 1)},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("want not-found error, got %v", err)
	}
}

func TestPlaceValidation(t *testing.T) {
	f := newFixture(t, 5, nil)
	itemID := uuid.New()

	cases := []struct {
		name string
		in   PlaceOrderInput
	}{
		{"missing customer", PlaceOrderInput{
			OrderDate: day("2026-01-01"), ExpectedReturnDate: day("2026-01-02"),
			Items: []PlaceItemInput{stockItem(itemID, "S", 1)},
		}},
		{"inverted window", PlaceOrderInput{
			CustomerID: f.customerID, OrderDate: day("2026-01-05"), ExpectedReturnDate: day("2026-01-01"),
			Items: []PlaceItemInput{stockItem(itemID, "S", 1)},
		}},
		{"no items", PlaceOrderInput{
			CustomerID: f.customerID, OrderDate: day("2026-01-01"), ExpectedReturnDate: day("2026-01-02"),
		}},
		{"zero quantity", PlaceOrderInput{
			CustomerID: f.customerID, OrderDate: day("2026-01-01"), ExpectedReturnDate: day("2026-01-02"),
			Items: []PlaceItemInput{stockItem(itemID, "S", 0)},
		}},
		{"empty size", PlaceOrderInput{
			CustomerID: f.customerID, OrderDate: day("2026-01-01"), ExpectedReturnDate: day("2026-01-02"),
			Items: []PlaceItemInput{stockItem(itemID, "", 1)},
		}},
		{"no inventory ref or flag", PlaceOrderInput{
			CustomerID: f.customerID, OrderDate: day("2026-01-01"), ExpectedReturnDate: day("2026-01-02"),
			Items: []PlaceItemInput{{Size: "S", Quantity: 1}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Place(context.Background(), tc.in)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}
