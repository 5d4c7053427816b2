package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/lamnguyen-dev/rentalcrm-backend/api/responses"
	"github.com/lamnguyen-dev/rentalcrm-backend/api/validators"
	"github.com/lamnguyen-dev/rentalcrm-backend/internal/inventory"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/logger"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/pagination"
)

// InventorySearcher is the service surface behind the search endpoint.
type InventorySearcher interface {
	Search(ctx context.Context, in inventory.SearchInput) (*inventory.SearchResult, error)
}

// InventorySearch handles GET /api/v1/inventory/search. The query walks the
// encrypted catalog, so an empty result and a timeout are different answers:
// the latter is a TIMEOUT error envelope.
func InventorySearch(svc InventorySearcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dateFrom, err := validators.ParseQueryDate(r, "dateFrom")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dateTo, err := validators.ParseQueryDate(r, "dateTo")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Search(r.Context(), inventory.SearchInput{
			Query:    strings.TrimSpace(r.URL.Query().Get("q")),
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			DateFrom: dateFrom,
			DateTo:   dateTo,
			Page:     pagination.Params{Page: page, Limit: limit},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
