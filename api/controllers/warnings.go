package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lamnguyen-dev/rentalcrm-backend/api/responses"
	"github.com/lamnguyen-dev/rentalcrm-backend/api/validators"
	"github.com/lamnguyen-dev/rentalcrm-backend/internal/warnings"
	pkgerrors "github.com/lamnguyen-dev/rentalcrm-backend/pkg/errors"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/logger"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/pagination"
)

// WarningReader is the engine surface behind the read endpoints.
type WarningReader interface {
	GetAffectedOrders(ctx context.Context, itemID uuid.UUID, size string, from, to time.Time) ([]warnings.AffectedOrder, error)
	ListOrdersWithWarnings(ctx context.Context, params pagination.Params, resolved *bool) (*warnings.WarningList, error)
}

// WarningResolver toggles a warning's resolved state by order item.
type WarningResolver interface {
	SetResolvedByOrderItem(ctx context.Context, orderItemID, userID uuid.UUID, resolved bool) error
}

// AffectedOrders handles GET /api/v1/orders/affected-orders: the orders an
// oversold allocation would collide with, shown on the order form before
// saving.
func AffectedOrders(svc WarningReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, size, from, to, err := affectedOrdersQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		affected, err := svc.GetAffectedOrders(r.Context(), itemID, size, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"affectedOrders": affected})
	}
}

// OverlappingOrders handles GET /api/v1/orders/overlapping, the same lookup
// under the key the order form's availability panel expects.
func OverlappingOrders(svc WarningReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, size, from, to, err := affectedOrdersQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		affected, err := svc.GetAffectedOrders(r.Context(), itemID, size, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orders": affected})
	}
}

func affectedOrdersQuery(r *http.Request) (uuid.UUID, string, time.Time, time.Time, error) {
	itemID, err := validators.RequireQueryUUID(r, "inventoryItemId")
	if err != nil {
		return uuid.Nil, "", time.Time{}, time.Time{}, err
	}
	size := r.URL.Query().Get("size")
	if size == "" {
		return uuid.Nil, "", time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter is required").
			WithDetails(map[string]any{"field": "size"})
	}
	from, err := validators.RequireQueryDate(r, "dateFrom")
	if err != nil {
		return uuid.Nil, "", time.Time{}, time.Time{}, err
	}
	to, err := validators.RequireQueryDate(r, "dateTo")
	if err != nil {
		return uuid.Nil, "", time.Time{}, time.Time{}, err
	}
	return itemID, size, from, to, nil
}

type resolveWarningRequest struct {
	OrderItemID      string `json:"orderItemId" validate:"required,uuid"`
	Resolved         *bool  `json:"resolved" validate:"required"`
	ResolvedByUserID string `json:"resolvedByUserId" validate:"required,uuid"`
}

// ResolveWarning handles POST /api/v1/orders/resolve-warning. Resolving an
// already resolved warning is a no-op; the original audit fields stay.
func ResolveWarning(svc WarningResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resolveWarningRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderItemID, err := uuid.Parse(req.OrderItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "orderItemId must be a uuid"))
			return
		}
		userID, err := uuid.Parse(req.ResolvedByUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "resolvedByUserId must be a uuid"))
			return
		}

		if err := svc.SetResolvedByOrderItem(r.Context(), orderItemID, userID, *req.Resolved); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"orderItemId": orderItemID, "resolved": *req.Resolved})
	}
}

// OrdersWithWarnings handles GET /api/v1/orders/with-warnings, the warnings
// dashboard. The resolved filter is tri-state: absent means everything.
func OrdersWithWarnings(svc WarningReader, logg *logger.Logger) http.HandlerFunc {
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
		resolved, err := validators.ParseQueryBool(r, "resolved")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrdersWithWarnings(r.Context(), pagination.Params{Page: page, Limit: limit}, resolved)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
