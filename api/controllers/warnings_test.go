package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lamnguyen-dev/rentalcrm-backend/internal/warnings"
	pkgerrors "github.com/lamnguyen-dev/rentalcrm-backend/pkg/errors"
	"github.com/lamnguyen-dev/rentalcrm-backend/pkg/pagination"
)

type testWarningReader struct {
	affectedFn func(ctx context.Context, itemID uuid.UUID, size string, from, to time.Time) ([]warnings.AffectedOrder, error)
	listFn     func(ctx context.Context, params pagination.Params, resolved *bool) (*warnings.WarningList, error)
}

func (s *testWarningReader) GetAffectedOrders(ctx context.Context, itemID uuid.UUID, size string, from, to time.Time) ([]warnings.AffectedOrder, error) {
	if s.affectedFn != nil {
		return s.affectedFn(ctx, itemID, size, from, to)
	}
	return nil, nil
}

func (s *testWarningReader) ListOrdersWithWarnings(ctx context.Context, params pagination.Params, resolved *bool) (*warnings.WarningList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params, resolved)
	}
	return &warnings.WarningList{Warnings: []warnings.WarningListEntry{}}, nil
}

type testWarningResolver struct {
	resolveFn func(ctx context.Context, orderItemID, userID uuid.UUID, resolved bool) error
}

func (s *testWarningResolver) SetResolvedByOrderItem(ctx context.Context, orderItemID, userID uuid.UUID, resolved bool) error {
	if s.resolveFn != nil {
		return s.resolveFn(ctx, orderItemID, userID, resolved)
	}
	return nil
}

func TestAffectedOrdersSuccess(t *testing.T) {
	itemID := uuid.New()
	called := false
	svc := &testWarningReader{
		affectedFn: func(_ context.Context, gotItem uuid.UUID, size string, from, to time.Time) ([]warnings.AffectedOrder, error) {
			called = true
			if gotItem != itemID {
				t.Fatalf("unexpected item %s", gotItem)
			}
			if size != "Size M" {
				t.Fatalf("unexpected size %q", size)
			}
			if from.Format("2006-01-02") != "2026-09-01" || to.Format("2006-01-02") != "2026-09-05" {
				t.Fatalf("unexpected window %s..%s", from, to)
			}
			return []warnings.AffectedOrder{
				{OrderID: uuid.New(), OrderItemID: uuid.New(), CustomerName: "An", Quantity: 2},
			}, nil
		},
	}

	target := "/api/v1/orders/affected-orders?inventoryItemId=" + itemID.String() +
		"&size=Size+M&dateFrom=2026-09-01&dateTo=2026-09-05"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	AffectedOrders(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected service called")
	}
	var envelope struct {
		Data struct {
			AffectedOrders []warnings.AffectedOrder `json:"affectedOrders"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.AffectedOrders) != 1 || envelope.Data.AffectedOrders[0].CustomerName != "An" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestAffectedOrdersBadQuery(t *testing.T) {
	itemID := uuid.NewString()
	cases := []struct {
		name   string
		target string
	}{
		{"missing item", "/api/v1/orders/affected-orders?size=M&dateFrom=2026-09-01&dateTo=2026-09-05"},
		{"bad item", "/api/v1/orders/affected-orders?inventoryItemId=nope&size=M&dateFrom=2026-09-01&dateTo=2026-09-05"},
		{"missing size", "/api/v1/orders/affected-orders?inventoryItemId=" + itemID + "&dateFrom=2026-09-01&dateTo=2026-09-05"},
		{"missing dateFrom", "/api/v1/orders/affected-orders?inventoryItemId=" + itemID + "&size=M&dateTo=2026-09-05"},
		{"bad dateTo", "/api/v1/orders/affected-orders?inventoryItemId=" + itemID + "&size=M&dateFrom=2026-09-01&dateTo=tomorrow"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			resp := httptest.NewRecorder()
			AffectedOrders(&testWarningReader{}, testLogger())(resp, req)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", resp.Code)
			}
		})
	}
}

func TestOverlappingOrdersUsesOrdersKey(t *testing.T) {
	svc := &testWarningReader{
		affectedFn: func(context.Context, uuid.UUID, string, time.Time, time.Time) ([]warnings.AffectedOrder, error) {
			return []warnings.AffectedOrder{{OrderID: uuid.New()}}, nil
		},
	}

	target := "/api/v1/inventory/overlapping?inventoryItemId=" + uuid.NewString() +
		"&size=M&dateFrom=2026-09-01&dateTo=2026-09-05"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	OverlappingOrders(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if _, ok := envelope.Data["orders"]; !ok {
		t.Fatalf("expected orders key, got %v", envelope.Data)
	}
}

func TestResolveWarningSuccess(t *testing.T) {
	orderItemID := uuid.New()
	userID := uuid.New()
	called := false
	svc := &testWarningResolver{
		resolveFn: func(_ context.Context, gotItem, gotUser uuid.UUID, resolved bool) error {
			called = true
			if gotItem != orderItemID || gotUser != userID {
				t.Fatalf("unexpected args %s %s", gotItem, gotUser)
			}
			if !resolved {
				t.Fatal("expected resolved=true")
			}
			return nil
		},
	}

	body := `{"orderItemId": "` + orderItemID.String() + `", "resolved": true, "resolvedByUserId": "` + userID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/resolve-warning", strings.NewReader(body))
	resp := httptest.NewRecorder()
	ResolveWarning(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected service called")
	}
}

func TestResolveWarningValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing resolved", `{"orderItemId": "` + uuid.NewString() + `", "resolvedByUserId": "` + uuid.NewString() + `"}`},
		{"bad order item", `{"orderItemId": "nope", "resolved": true, "resolvedByUserId": "` + uuid.NewString() + `"}`},
		{"missing user", `{"orderItemId": "` + uuid.NewString() + `", "resolved": false}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/resolve-warning", strings.NewReader(tc.body))
			resp := httptest.NewRecorder()
			ResolveWarning(&testWarningResolver{}, testLogger())(resp, req)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
			}
		})
	}
}

func TestResolveWarningNotFound(t *testing.T) {
	svc := &testWarningResolver{
		resolveFn: func(context.Context, uuid.UUID, uuid.UUID, bool) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "warning not found")
		},
	}

	body := `{"orderItemId": "` + uuid.NewString() + `", "resolved": true, "resolvedByUserId": "` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/resolve-warning", strings.NewReader(body))
	resp := httptest.NewRecorder()
	ResolveWarning(svc, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOrdersWithWarningsResolvedFilter(t *testing.T) {
	var gotResolved *bool
	var gotParams pagination.Params
	svc := &testWarningReader{
		listFn: func(_ context.Context, params pagination.Params, resolved *bool) (*warnings.WarningList, error) {
			gotParams = params
			gotResolved = resolved
			return &warnings.WarningList{Warnings: []warnings.WarningListEntry{}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/with-warnings?page=2&limit=5&resolved=false", nil)
	resp := httptest.NewRecorder()
	OrdersWithWarnings(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotParams.Page != 2 || gotParams.Limit != 5 {
		t.Fatalf("unexpected params %+v", gotParams)
	}
	if gotResolved == nil || *gotResolved {
		t.Fatalf("expected resolved=false filter, got %v", gotResolved)
	}
}

func TestOrdersWithWarningsBadResolved(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/with-warnings?resolved=maybe", nil)
	resp := httptest.NewRecorder()
	OrdersWithWarnings(&testWarningReader{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
