package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lamnguyen-dev/rentalcrm-backend/api/responses"
	"github.com/lamnguyen-dev/rentalcrm-backend/api/validators"
	"github.com/lamnguyen-dev/rentalcrm-backend/internal/orders"
	pkgerrors "github.com/lamnguyen-dev/rentalcrm-backend/pkg/errors"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/logger"
)

// OrderPlacer is the service surface behind order placement.
type OrderPlacer interface {
	Place(ctx context.Context, in orders.PlaceOrderInput) (*orders.PlacedOrder, error)
}

type placeOrderItemRequest struct {
	InventoryItemID *string `json:"inventoryItemId" validate:"omitempty,uuid"`
	Size            string  `json:"size" validate:"required"`
	Quantity        int     `json:"quantity" validate:"required,min=1"`
	IsExtension     bool    `json:"isExtension"`
	IsCustom        bool    `json:"isCustom"`
}

type placeOrderRequest struct {
	CustomerID         string                  `json:"customerId" validate:"required,uuid"`
	OrderDate          string                  `json:"orderDate" validate:"required,datetime=2006-01-02"`
	ExpectedReturnDate string                  `json:"expectedReturnDate" validate:"required,datetime=2006-01-02"`
	Notes              *string                 `json:"notes"`
	Items              []placeOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PlaceOrder handles POST /api/v1/orders. Oversold allocations come back in
// the warnings list; they never fail the request.
func PlaceOrder(svc OrderPlacer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req placeOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		placed, err := svc.Place(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, placed)
	}
}

func (req placeOrderRequest) toInput() (*orders.PlaceOrderInput, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customerId must be a uuid")
	}
	orderDate, err := time.Parse(validators.DateLayout, req.OrderDate)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderDate must be a YYYY-MM-DD date")
	}
	returnDate, err := time.Parse(validators.DateLayout, req.ExpectedReturnDate)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expectedReturnDate must be a YYYY-MM-DD date")
	}

	input := &orders.PlaceOrderInput{
		CustomerID:         customerID,
		OrderDate:          orderDate,
		ExpectedReturnDate: returnDate,
		Notes:              req.Notes,
	}
	for i, item := range req.Items {
		var itemID *uuid.UUID
		if item.InventoryItemID != nil {
			parsed, err := uuid.Parse(*item.InventoryItemID)
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventoryItemId must be a uuid").
					WithDetails(map[string]any{"item_index": i})
			}
			itemID = &parsed
		}
		input.Items = append(input.Items, orders.PlaceItemInput{
			InventoryItemID: itemID,
			Size:            item.Size,
			Quantity:        item.Quantity,
			IsExtension:     item.IsExtension,
			IsCustom:        item.IsCustom,
		})
	}
	return input, nil
}
