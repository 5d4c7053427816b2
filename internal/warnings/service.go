package warnings

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/crypto"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/db/models"
	pkgerrors "github.com/lamnguyen-dev/rentalcrm-backend/pkg/errors"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/logger"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/metrics"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/pagination"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/textnorm"
)

// WarningInfo describes a detected oversell for one prospective allocation.
type WarningInfo struct {
	ItemID   uuid.UUID `json:"itemId"`
	Size     string    `json:"size"`
	OnHand   int       `json:"onHand"`
	Reserved int       `json:"reserved"`
	Oversold int       `json:"oversold"`
	DateFrom time.Time `json:"dateFrom"`
	DateTo   time.Time `json:"dateTo"`
}

// AffectedOrder is an existing order holding the same item+size over an
// overlapping window.
type AffectedOrder struct {
	OrderID            uuid.UUID `json:"orderId"`
	OrderItemID        uuid.UUID `json:"orderItemId"`
	CustomerName       string    `json:"customerName"`
	Quantity           int       `json:"quantity"`
	OrderDate          time.Time `json:"orderDate"`
	ExpectedReturnDate time.Time `json:"expectedReturnDate"`
}

// WarningListEntry is one row of the warnings dashboard.
type WarningListEntry struct {
	WarningID          uuid.UUID  `json:"warningId"`
	OrderItemID        uuid.UUID  `json:"orderItemId"`
	OrderID            uuid.UUID  `json:"orderId"`
	CustomerName       string     `json:"customerName"`
	Size               string     `json:"size"`
	Quantity           int        `json:"quantity"`
	OrderDate          time.Time  `json:"orderDate"`
	ExpectedReturnDate time.Time  `json:"expectedReturnDate"`
	Resolved           bool       `json:"resolved"`
	ResolvedByUserID   *uuid.UUID `json:"resolvedByUserId,omitempty"`
	ResolvedByName     *string    `json:"resolvedByName,omitempty"`
	ResolvedAt         *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// WarningList is a dashboard page with pagination metadata.
type WarningList struct {
	Warnings []WarningListEntry `json:"warnings"`
	Meta     pagination.Meta    `json:"meta"`
}

// CalcInput is one prospective allocation to check for oversell before an
// order is persisted.
type CalcInput struct {
	ItemID             uuid.UUID
	Size               string
	Quantity           int
	OrderDate          time.Time
	ExpectedReturnDate time.Time
	// OriginalOnHand is the stock level captured before the caller's own
	// mutation, so the check is against the pre-order baseline.
	OriginalOnHand int
}

// PropagateInput drives the retroactive pass after an order is persisted:
// older orders whose allocations became oversold get flagged.
type PropagateInput struct {
	ItemID             uuid.UUID
	Size               string
	Quantity           int
	OrderDate          time.Time
	ExpectedReturnDate time.Time
	OriginalOnHand     int
	// NewOrderItemID excludes the freshly persisted item from the pass;
	// its own warning is the caller's responsibility.
	NewOrderItemID *uuid.UUID
}

// ReservedCounter is the slice of the availability calculator the engine
// needs: the reserved total for an item+size over a window.
type ReservedCounter interface {
	Reserved(ctx context.Context, itemID uuid.UUID, size string, from, to time.Time) (int, error)
}

// WarningStore is the persistence surface behind the engine.
type WarningStore interface {
	CreateIfAbsent(ctx context.Context, orderItemID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.OrderWarning, error)
	FindByOrderItem(ctx context.Context, orderItemID uuid.UUID) (*models.OrderWarning, error)
	MarkResolved(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error)
	MarkUnresolved(ctx context.Context, id uuid.UUID) (bool, error)
	OverlappingForItem(ctx context.Context, itemID uuid.UUID, from, to time.Time) ([]OverlapRow, error)
	ListWarnings(ctx context.Context, params pagination.Params, resolved *bool) ([]WarningRow, int, error)
}

// Engine detects and flags oversold allocations. It never blocks order
// placement and never deletes a warning on its own.
type Engine struct {
	store    WarningStore
	reserved ReservedCounter
	cipher   crypto.Cipher
	logg     *logger.Logger
	sm       *metrics.ScanMetrics
	now      func() time.Time
}

func NewEngine(store WarningStore, reserved ReservedCounter, cipher crypto.Cipher, logg *logger.Logger, sm *metrics.ScanMetrics) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("warning store required")
	}
	if reserved == nil {
		return nil, fmt.Errorf("reserved counter required")
	}
	if cipher == nil {
		return nil, fmt.Errorf("cipher required")
	}
	return &Engine{
		store:    store,
		reserved: reserved,
		cipher:   cipher,
		logg:     logg,
		sm:       sm,
		now:      time.Now,
	}, nil
}

// CalculateItemWarning simulates adding in.Quantity to the reservations over
// the order window. Returns nil when the allocation fits within on-hand
// stock; otherwise the WarningInfo the caller should surface.
func (e *Engine) CalculateItemWarning(ctx context.Context, in CalcInput) (*WarningInfo, error) {
	if in.ExpectedReturnDate.Before(in.OrderDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderDate must not be after expectedReturnDate")
	}

	reserved, err := e.reserved.Reserved(ctx, in.ItemID, in.Size, in.OrderDate, in.ExpectedReturnDate)
	if err != nil {
		return nil, err
	}

	projected := reserved + in.Quantity
	if projected <= in.OriginalOnHand {
		return nil, nil
	}
	return &WarningInfo{
		ItemID:   in.ItemID,
		Size:     in.Size,
		OnHand:   in.OriginalOnHand,
		Reserved: reserved,
		Oversold: projected - in.OriginalOnHand,
		DateFrom: in.OrderDate,
		DateTo:   in.ExpectedReturnDate,
	}, nil
}

// AddWarningsToAffectedOrders runs after an order is persisted. For every
// other order item of the same item+size whose window overlaps the new one,
// it recomputes the reserved total over that item's own window and opens a
// warning when the allocation no longer fits. Per-row failures are logged
// and skipped so one bad record cannot abort the pass.
func (e *Engine) AddWarningsToAffectedOrders(ctx context.Context, in PropagateInput) error {
	rows, err := e.store.OverlappingForItem(ctx, in.ItemID, in.OrderDate, in.ExpectedReturnDate)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load overlapping order items")
	}

	want := textnorm.SizeKey(in.Size)
	for _, row := range rows {
		if in.NewOrderItemID != nil && row.OrderItemID == *in.NewOrderItemID {
			continue
		}
		label, err := e.cipher.Decrypt(row.SizeCipher)
		if err != nil {
			e.skipRow(ctx, row.OrderItemID, "skipping undecryptable order item", err)
			continue
		}
		if textnorm.SizeKey(label) != want {
			continue
		}

		reserved, err := e.reserved.Reserved(ctx, in.ItemID, in.Size, row.OrderDate, row.ExpectedReturnDate)
		if err != nil {
			e.warnRow(ctx, row.OrderItemID, "skipping order item: reserved scan failed", err)
			continue
		}
		if reserved <= in.OriginalOnHand {
			continue
		}

		created, err := e.store.CreateIfAbsent(ctx, row.OrderItemID)
		if err != nil {
			e.warnRow(ctx, row.OrderItemID, "skipping order item: warning insert failed", err)
			continue
		}
		if created {
			e.sm.IncWarningCreated()
			if e.logg != nil {
				lctx := e.logg.WithFields(ctx, map[string]any{
					"order_item_id": row.OrderItemID,
					"order_id":      row.OrderID,
					"reserved":      reserved,
					"on_hand":       in.OriginalOnHand,
				})
				e.logg.Info(lctx, "oversell warning opened for existing order")
			}
		}
	}
	return nil
}

// FlagOrderItem opens a warning directly on an order item. Used for the
// newly placed item itself once CalculateItemWarning reports an oversell.
func (e *Engine) FlagOrderItem(ctx context.Context, orderItemID uuid.UUID) error {
	created, err := e.store.CreateIfAbsent(ctx, orderItemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create order warning")
	}
	if created {
		e.sm.IncWarningCreated()
	}
	return nil
}

// GetAffectedOrders lists the existing orders holding the same item+size
// over a window that overlaps [from, to]. Read-only preview for the order
// form; it flags nothing.
func (e *Engine) GetAffectedOrders(ctx context.Context, itemID uuid.UUID, size string, from, to time.Time) ([]AffectedOrder, error) {
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dateFrom must not be after dateTo")
	}

	rows, err := e.store.OverlappingForItem(ctx, itemID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load overlapping order items")
	}

	want := textnorm.SizeKey(size)
	out := make([]AffectedOrder, 0, len(rows))
	for _, row := range rows {
		label, err := e.cipher.Decrypt(row.SizeCipher)
		if err != nil {
			e.skipRow(ctx, row.OrderItemID, "skipping undecryptable order item", err)
			continue
		}
		if textnorm.SizeKey(label) != want {
			continue
		}
		out = append(out, AffectedOrder{
			OrderID:            row.OrderID,
			OrderItemID:        row.OrderItemID,
			CustomerName:       row.CustomerName,
			Quantity:           row.Quantity,
			OrderDate:          row.OrderDate,
			ExpectedReturnDate: row.ExpectedReturnDate,
		})
	}
	return out, nil
}

// ResolveWarning marks a warning resolved, recording who and when. Resolving
// an already resolved warning is a no-op that keeps the original audit trail.
func (e *Engine) ResolveWarning(ctx context.Context, warningID, userID uuid.UUID) error {
	if _, err := e.findWarning(ctx, warningID); err != nil {
		return err
	}
	if _, err := e.store.MarkResolved(ctx, warningID, userID, e.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: resolve order warning")
	}
	return nil
}

// UnresolveWarning reopens a resolved warning.
func (e *Engine) UnresolveWarning(ctx context.Context, warningID uuid.UUID) error {
	if _, err := e.findWarning(ctx, warningID); err != nil {
		return err
	}
	if _, err := e.store.MarkUnresolved(ctx, warningID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: unresolve order warning")
	}
	return nil
}

// SetResolvedByOrderItem is the wire-facing toggle keyed by order item.
func (e *Engine) SetResolvedByOrderItem(ctx context.Context, orderItemID, userID uuid.UUID, resolved bool) error {
	warning, err := e.store.FindByOrderItem(ctx, orderItemID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no warning for order item")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order warning")
	}
	if resolved {
		return e.ResolveWarning(ctx, warning.ID, userID)
	}
	return e.UnresolveWarning(ctx, warning.ID)
}

// ListOrdersWithWarnings pages the warnings dashboard. resolved is
// tri-state: nil means both open and resolved.
func (e *Engine) ListOrdersWithWarnings(ctx context.Context, params pagination.Params, resolved *bool) (*WarningList, error) {
	params = pagination.Normalize(params)
	rows, total, err := e.store.ListWarnings(ctx, params, resolved)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list order warnings")
	}

	entries := make([]WarningListEntry, 0, len(rows))
	for _, row := range rows {
		size, err := e.cipher.Decrypt(row.SizeCipher)
		if err != nil {
			// Listing still shows the row; only the label is lost.
			e.skipRow(ctx, row.OrderItemID, "undecryptable size label on warning row", err)
			size = ""
		}
		entries = append(entries, WarningListEntry{
			WarningID:          row.WarningID,
			OrderItemID:        row.OrderItemID,
			OrderID:            row.OrderID,
			CustomerName:       row.CustomerName,
			Size:               size,
			Quantity:           row.Quantity,
			OrderDate:          row.OrderDate,
			ExpectedReturnDate: row.ExpectedReturnDate,
			Resolved:           row.Resolved,
			ResolvedByUserID:   row.ResolvedByUserID,
			ResolvedByName:     row.ResolvedByName,
			ResolvedAt:         row.ResolvedAt,
			CreatedAt:          row.WarningCreatedAt,
		})
	}
	return &WarningList{
		Warnings: entries,
		Meta:     pagination.BuildMeta(params, total),
	}, nil
}

func (e *Engine) findWarning(ctx context.Context, id uuid.UUID) (*models.OrderWarning, error) {
	warning, err := e.store.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warning not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order warning")
	}
	return warning, nil
}

// skipRow is the fail-open path for one undecryptable record: count, log,
// move on.
func (e *Engine) skipRow(ctx context.Context, orderItemID uuid.UUID, msg string, err error) {
	e.sm.IncDecryptFailure("warnings")
	e.warnRow(ctx, orderItemID, msg, err)
}

func (e *Engine) warnRow(ctx context.Context, orderItemID uuid.UUID, msg string, err error) {
	if e.logg != nil {
		lctx := e.logg.WithField(ctx, "order_item_id", orderItemID)
		e.logg.Warn(lctx, fmt.Sprintf("%s: %v", msg, err))
	}
}
