package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/config"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/crypto"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/db/models"
	pkgerrors "github.com/lamnguyen-dev/rentalcrm-backend/pkg/errors"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/logger"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/metrics"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/textnorm"
)

const scanName = "availability"

// Result is the availability figure for one item+size over a window.
// Available is floored at zero; oversell is only visible through warnings.
type Result struct {
	OnHand    int `json:"onHand"`
	Reserved  int `json:"reserved"`
	Available int `json:"available"`
}

// ReservationRow is one order item candidate joined with its order's window.
type ReservationRow struct {
	OrderItemID        uuid.UUID
	OrderID            uuid.UUID
	SizeCipher         string
	Quantity           int
	OrderDate          time.Time
	ExpectedReturnDate time.Time
}

// SizeSource loads the stock records of an item.
type SizeSource interface {
	SizesByItem(ctx context.Context, itemID uuid.UUID) ([]models.InventorySize, error)
}

// ReservationSource pages through order items whose windows overlap a query
// window, regardless of size (size matching needs decryption and happens in
// the calculator).
type ReservationSource interface {
	OverlappingOrderItems(ctx context.Context, itemID uuid.UUID, from, to time.Time, offset, limit int) ([]ReservationRow, error)
}

// WindowsOverlap implements the inclusive interval test: [a1,a2] and [b1,b2]
// share at least one day iff a1 <= b2 and a2 >= b1.
func WindowsOverlap(a1, a2, b1, b2 time.Time) bool {
	return !a1.After(b2) && !a2.Before(b1)
}

// Calculator computes free stock by subtracting overlapping reservations
// from the on-hand count. Pure read path: it never mutates state.
type Calculator struct {
	sizes        SizeSource
	reservations ReservationSource
	cipher       crypto.Cipher
	logg         *logger.Logger
	scanMetrics  *metrics.ScanMetrics
	cfg          config.SearchConfig
}

func NewCalculator(sizes SizeSource, reservations ReservationSource, cipher crypto.Cipher, logg *logger.Logger, scanMetrics *metrics.ScanMetrics, cfg config.SearchConfig) (*Calculator, error) {
	if sizes == nil {
		return nil, fmt.Errorf("size source required")
	}
	if reservations == nil {
		return nil, fmt.Errorf("reservation source required")
	}
	if cipher == nil {
		return nil, fmt.Errorf("cipher required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &Calculator{
		sizes:        sizes,
		reservations: reservations,
		cipher:       cipher,
		logg:         logg,
		scanMetrics:  scanMetrics,
		cfg:          cfg,
	}, nil
}

// Available returns {onHand, reserved, available} for the item+size over the
// inclusive window [from, to]. A size with no matching stock record yields
// onHand 0 rather than an error.
func (c *Calculator) Available(ctx context.Context, itemID uuid.UUID, size string, from, to time.Time) (Result, error) {
	if to.Before(from) {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "dateFrom must not be after dateTo")
	}

	onHand, _, err := c.OnHand(ctx, itemID, size)
	if err != nil {
		return Result{}, err
	}

	reserved, err := c.Reserved(ctx, itemID, size, from, to)
	if err != nil {
		return Result{}, err
	}

	available := onHand - reserved
	if available < 0 {
		available = 0
	}
	return Result{OnHand: onHand, Reserved: reserved, Available: available}, nil
}

// OnHand finds the stock record whose decrypted title normalizes equal to
// size. The second return reports whether a matching record exists.
func (c *Calculator) OnHand(ctx context.Context, itemID uuid.UUID, size string) (int, bool, error) {
	rows, err := c.sizes.SizesByItem(ctx, itemID)
	if err != nil {
		return 0, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load inventory sizes")
	}

	want := textnorm.SizeKey(size)
	for _, row := range rows {
		title, err := c.cipher.Decrypt(row.TitleCipher)
		if err != nil {
			c.skipUndecryptable(ctx, "inventory_size", row.ID, err)
			continue
		}
		if textnorm.SizeKey(title) == want {
			return row.OnHand, true, nil
		}
	}
	return 0, false, nil
}

// Reserved sums the quantities of order items for the same item whose size
// matches after decrypt+normalize and whose window overlaps [from, to]. The
// scan runs in small batches under a wall-clock deadline; hitting the
// deadline yields a typed timeout error, never a partial total.
func (c *Calculator) Reserved(ctx context.Context, itemID uuid.UUID, size string, from, to time.Time) (int, error) {
	started := time.Now()
	deadline := started.Add(c.cfg.Timeout)

	want := textnorm.SizeKey(size)
	total := 0
	offset := 0

	for {
		// Deadline is only checked between batches; an in-flight batch
		// always runs to completion.
		if time.Now().After(deadline) || ctx.Err() != nil {
			c.scanMetrics.IncTimeout(scanName)
			return 0, pkgerrors.New(pkgerrors.CodeTimeout, "availability scan timed out").
				WithDetails(map[string]any{"item_id": itemID, "elapsed_ms": time.Since(started).Milliseconds()})
		}

		batch, err := c.reservations.OverlappingOrderItems(ctx, itemID, from, to, offset, c.cfg.BatchSize)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load overlapping order items")
		}

		for _, row := range batch {
			label, err := c.cipher.Decrypt(row.SizeCipher)
			if err != nil {
				c.skipUndecryptable(ctx, "order_item", row.OrderItemID, err)
				continue
			}
			if textnorm.SizeKey(label) == want {
				total += row.Quantity
			}
		}

		if len(batch) < c.cfg.BatchSize {
			break
		}
		offset += len(batch)
	}

	c.scanMetrics.ObserveDuration(scanName, time.Since(started))
	return total, nil
}

// skipUndecryptable applies the fail-open policy for individual records:
// log, count, exclude from the computation.
func (c *Calculator) skipUndecryptable(ctx context.Context, kind string, id uuid.UUID, err error) {
	c.scanMetrics.IncDecryptFailure(scanName)
	if c.logg != nil {
		ctx = c.logg.WithFields(ctx, map[string]any{"record_kind": kind, "record_id": id})
		c.logg.Warn(ctx, fmt.Sprintf("skipping undecryptable record: %v", err))
	}
}
