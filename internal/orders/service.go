package orders

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lamnguyen-dev/rentalcrm-backend/internal/warnings"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/config"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/crypto"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/db/models"
	pkgerrors "github.com/lamnguyen-dev/rentalcrm-backend/pkg/errors"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/logger"
)

// PlaceItemInput is one line of an order being placed. Size travels in the
// clear on the wire and is encrypted before persistence.
type PlaceItemInput struct {
	InventoryItemID *uuid.UUID
	Size            string
	Quantity        int
	IsExtension     bool
	IsCustom        bool
}

// PlaceOrderInput is a full order placement request.
type PlaceOrderInput struct {
	CustomerID         uuid.UUID
	OrderDate          time.Time
	ExpectedReturnDate time.Time
	Notes              *string
	Items              []PlaceItemInput
}

// PlacedOrder is the placement result. Warnings lists the oversells the
// order introduces; placement succeeds regardless.
type PlacedOrder struct {
	OrderID  uuid.UUID              `json:"orderId"`
	Warnings []warnings.WarningInfo `json:"warnings"`
}

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockReader reports the on-hand count for an item+size.
type StockReader interface {
	OnHand(ctx context.Context, itemID uuid.UUID, size string) (int, bool, error)
}

// WarningEngine is the slice of the warning engine order placement needs.
type WarningEngine interface {
	CalculateItemWarning(ctx context.Context, in warnings.CalcInput) (*warnings.WarningInfo, error)
	FlagOrderItem(ctx context.Context, orderItemID uuid.UUID) error
	AddWarningsToAffectedOrders(ctx context.Context, in warnings.PropagateInput) error
}

// oversoldLine pairs an oversold request line with its pre-order stock
// snapshot.
type oversoldLine struct {
	itemIndex int
	info      warnings.WarningInfo
	onHand    int
}

// CustomerSource verifies the customer an order is placed for.
type CustomerSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// Service places orders. Oversell is detected and flagged, never blocked:
// the store accepts any order the staff enters and surfaces the conflict.
type Service struct {
	tx        TxRunner
	repo      Repository
	customers CustomerSource
	stock     StockReader
	engine    WarningEngine
	cipher    crypto.Cipher
	logg      *logger.Logger
	cfg       config.SearchConfig
}

func NewService(tx TxRunner, repo Repository, customers CustomerSource, stock StockReader, engine WarningEngine, cipher crypto.Cipher, logg *logger.Logger, cfg config.SearchConfig) (*Service, error) {
	if tx == nil || repo == nil || customers == nil || stock == nil || engine == nil || cipher == nil {
		return nil, fmt.Errorf("orders service: missing dependency")
	}
	if cfg.WarningTimeout <= 0 {
		cfg.WarningTimeout = 5 * time.Second
	}
	return &Service{
		tx:        tx,
		repo:      repo,
		customers: customers,
		stock:     stock,
		engine:    engine,
		cipher:    cipher,
		logg:      logg,
		cfg:       cfg,
	}, nil
}

// Place validates and persists the order, then runs the oversell pass: the
// new item's own warning plus retroactive warnings on overlapping orders.
// Warning failures after commit are logged, never surfaced as a placement
// failure.
func (s *Service) Place(ctx context.Context, in PlaceOrderInput) (*PlacedOrder, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	if _, err := s.customers.FindByID(ctx, in.CustomerID); err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load customer")
	}

	// Pre-persist oversell check against the pre-order baseline. The
	// on-hand snapshot taken here also feeds the retroactive pass.
	var oversold []oversoldLine
	for i, item := range in.Items {
		if !stockBacked(item) {
			continue
		}
		onHand, _, err := s.stock.OnHand(ctx, *item.InventoryItemID, item.Size)
		if err != nil {
			return nil, err
		}
		info, err := s.engine.CalculateItemWarning(ctx, warnings.CalcInput{
			ItemID:             *item.InventoryItemID,
			Size:               item.Size,
			Quantity:           item.Quantity,
			OrderDate:          in.OrderDate,
			ExpectedReturnDate: in.ExpectedReturnDate,
			OriginalOnHand:     onHand,
		})
		if err != nil {
			return nil, err
		}
		if info != nil {
			oversold = append(oversold, oversoldLine{itemIndex: i, info: *info, onHand: onHand})
		}
	}

	order := &models.Order{
		CustomerID:         in.CustomerID,
		OrderDate:          in.OrderDate,
		ExpectedReturnDate: in.ExpectedReturnDate,
		Notes:              in.Notes,
	}
	for _, item := range in.Items {
		sizeCipher, err := s.cipher.Encrypt(item.Size)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypt size label")
		}
		order.Items = append(order.Items, models.OrderItem{
			InventoryItemID: item.InventoryItemID,
			SizeCipher:      sizeCipher,
			Quantity:        item.Quantity,
			IsExtension:     item.IsExtension,
			IsCustom:        item.IsCustom,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create order")
	}

	result := &PlacedOrder{OrderID: order.ID, Warnings: make([]warnings.WarningInfo, 0, len(oversold))}
	for _, f := range oversold {
		result.Warnings = append(result.Warnings, f.info)
	}
	s.runWarningPass(ctx, order, oversold)
	return result, nil
}

// runWarningPass flags the new order's oversold items and propagates
// warnings to the overlapping orders they affect. Runs under its own
// deadline detached from the request lifecycle.
func (s *Service) runWarningPass(ctx context.Context, order *models.Order, oversold []oversoldLine) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WarningTimeout)
	defer cancel()

	for _, f := range oversold {
		newItem := order.Items[f.itemIndex]
		if err := s.engine.FlagOrderItem(wctx, newItem.ID); err != nil {
			s.warnPassFailure(wctx, order.ID, "flagging new order item failed", err)
		}
		err := s.engine.AddWarningsToAffectedOrders(wctx, warnings.PropagateInput{
			ItemID:             f.info.ItemID,
			Size:               f.info.Size,
			Quantity:           newItem.Quantity,
			OrderDate:          order.OrderDate,
			ExpectedReturnDate: order.ExpectedReturnDate,
			OriginalOnHand:     f.onHand,
			NewOrderItemID:     &newItem.ID,
		})
		if err != nil {
			s.warnPassFailure(wctx, order.ID, "retroactive warning pass failed", err)
		}
	}
}

func (s *Service) warnPassFailure(ctx context.Context, orderID uuid.UUID, msg string, err error) {
	if s.logg == nil {
		return
	}
	lctx := s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Warn(lctx, fmt.Sprintf("%s: %v", msg, err))
}

func (s *Service) validate(in PlaceOrderInput) error {
	if in.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customerId is required")
	}
	if in.ExpectedReturnDate.Before(in.OrderDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "orderDate must not be after expectedReturnDate")
	}
	if len(in.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	for i, item := range in.Items {
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"item_index": i})
		}
		if item.Size == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "size is required").
				WithDetails(map[string]any{"item_index": i})
		}
		if item.InventoryItemID == nil && !item.IsCustom && !item.IsExtension {
			return pkgerrors.New(pkgerrors.CodeValidation, "item needs an inventory reference or a custom/extension flag").
				WithDetails(map[string]any{"item_index": i})
		}
	}
	return nil
}

// stockBacked reports whether the line participates in availability
// accounting.
func stockBacked(item PlaceItemInput) bool {
	return item.InventoryItemID != nil && !item.IsCustom && !item.IsExtension
}
