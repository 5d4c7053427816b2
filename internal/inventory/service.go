package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lamnguyen-dev/rentalcrm-backend/internal/availability"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/config"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/crypto"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/db/models"
	pkgerrors "github.com/lamnguyen-dev/rentalcrm-backend/pkg/errors"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/logger"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/metrics"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/pagination"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/textnorm"
)

const scanName = "search"

// SearchInput carries the search filters. Availability is only annotated
// when both window dates are present.
type SearchInput struct {
	Query    string
	Category string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     pagination.Params
}

// SizeResult is one stock record of a matched item, optionally annotated
// with availability over the requested window.
type SizeResult struct {
	Size         string               `json:"size"`
	Quantity     int                  `json:"quantity"`
	OnHand       int                  `json:"onHand"`
	Price        decimal.Decimal      `json:"price"`
	Availability *availability.Result `json:"availability,omitempty"`
}

// ItemResult is one matched catalog item with decrypted display fields.
type ItemResult struct {
	ItemID   uuid.UUID    `json:"itemId"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Tags     []string     `json:"tags"`
	ImageURL *string      `json:"imageUrl,omitempty"`
	Sizes    []SizeResult `json:"sizes"`
}

// SearchResult is one page of matches. Note is set when the scan stopped at
// the item cap, so the page may be incomplete.
type SearchResult struct {
	Items []ItemResult    `json:"items"`
	Meta  pagination.Meta `json:"meta"`
	Note  string          `json:"searchNote,omitempty"`
}

// CatalogSource pages catalog items in recency order.
type CatalogSource interface {
	ItemsPage(ctx context.Context, offset, limit int) ([]models.InventoryItem, error)
}

// ReservedCounter reports the reserved total for an item+size over a window.
type ReservedCounter interface {
	Reserved(ctx context.Context, itemID uuid.UUID, size string, from, to time.Time) (int, error)
}

// SearchService matches the encrypted catalog against a text query. Every
// candidate row costs a decryption, so the scan is batched, capped and
// bounded by a wall-clock deadline.
type SearchService struct {
	catalog  CatalogSource
	reserved ReservedCounter
	cipher   crypto.Cipher
	logg     *logger.Logger
	sm       *metrics.ScanMetrics
	cfg      config.SearchConfig
}

func NewSearchService(catalog CatalogSource, reserved ReservedCounter, cipher crypto.Cipher, logg *logger.Logger, sm *metrics.ScanMetrics, cfg config.SearchConfig) (*SearchService, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if reserved == nil {
		return nil, fmt.Errorf("reserved counter required")
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
	if cfg.MaxItemsScan <= 0 {
		cfg.MaxItemsScan = 500
	}
	return &SearchService{
		catalog:  catalog,
		reserved: reserved,
		cipher:   cipher,
		logg:     logg,
		sm:       sm,
		cfg:      cfg,
	}, nil
}

// Search walks the catalog newest-first and returns the requested page of
// matches. The walk stops as soon as the page is filled, when the item cap
// is reached, or with a typed timeout error when the deadline passes
// between batches.
func (s *SearchService) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	if err := validateWindow(in.DateFrom, in.DateTo); err != nil {
		return nil, err
	}

	params := pagination.Normalize(in.Page)
	needed := params.Offset() + params.Limit

	started := time.Now()
	deadline := started.Add(s.cfg.Timeout)

	var matched []models.InventoryItem
	scanned := 0
	offset := 0
	capHit := false

	for len(matched) < needed {
		if time.Now().After(deadline) || ctx.Err() != nil {
			s.sm.IncTimeout(scanName)
			return nil, pkgerrors.New(pkgerrors.CodeTimeout, "inventory search timed out").
				WithDetails(map[string]any{"scanned": scanned, "elapsed_ms": time.Since(started).Milliseconds()})
		}
		if scanned >= s.cfg.MaxItemsScan {
			capHit = true
			s.sm.IncCapHit(scanName)
			break
		}

		batch, err := s.catalog.ItemsPage(ctx, offset, s.cfg.BatchSize)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load inventory items")
		}
		if len(batch) == 0 {
			break
		}

		for _, item := range batch {
			scanned++
			if s.matches(ctx, item, in.Query, in.Category) {
				matched = append(matched, item)
				if len(matched) >= needed {
					break
				}
			}
		}

		if len(batch) < s.cfg.BatchSize {
			break
		}
		offset += len(batch)
	}
	s.sm.ObserveDuration(scanName, time.Since(started))

	pageRows := matched
	if params.Offset() < len(pageRows) {
		pageRows = pageRows[params.Offset():]
	} else {
		pageRows = nil
	}

	items := make([]ItemResult, 0, len(pageRows))
	for _, item := range pageRows {
		result, err := s.buildItem(ctx, item, in.DateFrom, in.DateTo)
		if err != nil {
			return nil, err
		}
		items = append(items, *result)
	}

	meta := pagination.BuildMeta(params, len(matched))
	if len(matched) >= needed {
		// The walk stopped once the page was filled; more matches may
		// exist beyond it.
		meta.HasMore = true
	}

	out := &SearchResult{Items: items, Meta: meta}
	if capHit {
		out.Note = fmt.Sprintf("search stopped after scanning %d items; narrow the query for full results", scanned)
	}
	return out, nil
}

// matches decrypts the display fields and applies the category and query
// filters. Undecryptable items are skipped, never fatal.
func (s *SearchService) matches(ctx context.Context, item models.InventoryItem, query, category string) bool {
	name, err := s.cipher.Decrypt(item.NameCipher)
	if err != nil {
		s.skipItem(ctx, item.ID, err)
		return false
	}
	itemCategory, err := s.cipher.Decrypt(item.CategoryCipher)
	if err != nil {
		s.skipItem(ctx, item.ID, err)
		return false
	}

	if category != "" && textnorm.Fold(category) != textnorm.Fold(itemCategory) {
		return false
	}

	fields := append([]string{name, itemCategory}, item.Tags...)
	return textnorm.ContainsQuery(query, fields...)
}

// buildItem decrypts the matched item's display fields and size labels and
// annotates availability when a window was given.
func (s *SearchService) buildItem(ctx context.Context, item models.InventoryItem, from, to *time.Time) (*ItemResult, error) {
	name, err := s.cipher.Decrypt(item.NameCipher)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDecryption, err, "decrypt item name")
	}
	category, err := s.cipher.Decrypt(item.CategoryCipher)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDecryption, err, "decrypt item category")
	}

	result := &ItemResult{
		ItemID:   item.ID,
		Name:     name,
		Category: category,
		Tags:     item.Tags,
		ImageURL: item.ImageURL,
		Sizes:    make([]SizeResult, 0, len(item.Sizes)),
	}

	for _, size := range item.Sizes {
		label, err := s.cipher.Decrypt(size.TitleCipher)
		if err != nil {
			s.skipItem(ctx, size.ID, err)
			continue
		}
		entry := SizeResult{
			Size:     label,
			Quantity: size.Quantity,
			OnHand:   size.OnHand,
			Price:    size.Price,
		}
		if from != nil && to != nil {
			reserved, err := s.reserved.Reserved(ctx, item.ID, label, *from, *to)
			if err != nil {
				return nil, err
			}
			avail := size.OnHand - reserved
			if avail < 0 {
				avail = 0
			}
			entry.Availability = &availability.Result{
				OnHand:    size.OnHand,
				Reserved:  reserved,
				Available: avail,
			}
		}
		result.Sizes = append(result.Sizes, entry)
	}
	return result, nil
}

func (s *SearchService) skipItem(ctx context.Context, id uuid.UUID, err error) {
	s.sm.IncDecryptFailure(scanName)
	if s.logg != nil {
		lctx := s.logg.WithItemID(ctx, id.String())
		s.logg.Warn(lctx, fmt.Sprintf("skipping undecryptable record: %v", err))
	}
}

func validateWindow(from, to *time.Time) error {
	if (from == nil) != (to == nil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "dateFrom and dateTo must be provided together")
	}
	if from != nil && to.Before(*from) {
		return pkgerrors.New(pkgerrors.CodeValidation, "dateFrom must not be after dateTo")
	}
	return nil
}
