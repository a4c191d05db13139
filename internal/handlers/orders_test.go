package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	domain "github.com/leaf-procure/api/internal/domain"
	"github.com/leaf-procure/api/internal/services"
)

type stubProcurementService struct {
	stock    domain.StockCheck
	stockErr error

	order    domain.Order
	orderErr error
	lastCmd  services.CreateOrderCommand

	quote     domain.Quote
	quoteErr  error
	lastOrder domain.Order
}

func (s *stubProcurementService) CheckStock(_ context.Context, sku string, quantity int) (domain.StockCheck, error) {
	return s.stock, s.stockErr
}

func (s *stubProcurementService) CreateOrder(_ context.Context, cmd services.CreateOrderCommand) (domain.Order, error) {
	s.lastCmd = cmd
	return s.order, s.orderErr
}

func (s *stubProcurementService) EmitQuote(_ context.Context, order domain.Order) (domain.Quote, error) {
	s.lastOrder = order
	return s.quote, s.quoteErr
}

func newOrderRouter(t *testing.T, svc *stubProcurementService) chi.Router {
	t.Helper()
	h, err := NewOrderHandlers(svc, 0)
	if err != nil {
		t.Fatalf("NewOrderHandlers: %v", err)
	}
	r := chi.NewRouter()
	r.Route("/stock", h.RegisterStock)
	r.Route("/orders", h.RegisterOrders)
	return r
}

func TestStockCheckEndpointReturnsAvailability(t *testing.T) {
	svc := &stubProcurementService{
		stock: domain.StockCheck{
			SKU:            "PAPER-STD-80",
			Name:           "Copy Paper 80gsm",
			Available:      true,
			OnHand:         1200,
			RequestedQty:   10,
			UnitPrice:      decimal.RequireFromString("4.05"),
			PriceTier:      domain.PriceTierBulk,
			BulkDiscount:   true,
			LeadTimeDays:   3,
			EstimatedTotal: decimal.RequireFromString("40.50"),
		},
	}
	router := newOrderRouter(t, svc)

	body := `{"sku":"PAPER-STD-80","quantity":10}`
	req := httptest.NewRequest(http.MethodPost, "/stock/check", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload stockCheckResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.UnitPrice != "4.05" || payload.EstimatedTotal != "40.50" {
		t.Fatalf("unexpected pricing: %+v", payload)
	}
	if payload.PriceTier != "bulk" || !payload.BulkDiscount {
		t.Fatalf("expected bulk tier, got %+v", payload)
	}
}

func TestStockCheckEndpointMapsUnknownSKU(t *testing.T) {
	svc := &stubProcurementService{stockErr: services.ErrProductNotFound}
	router := newOrderRouter(t, svc)

	body := `{"sku":"NOPE","quantity":1}`
	req := httptest.NewRequest(http.MethodPost, "/stock/check", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Error != "product_not_found" {
		t.Fatalf("expected product_not_found, got %s", payload.Error)
	}
}

func TestCreateOrderEndpointReturnsCreatedOrder(t *testing.T) {
	created := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := &stubProcurementService{
		order: domain.Order{
			ID: "PO-TEST1",
			Items: []domain.OrderItem{
				{
					SKU:          "PAPER-RCY-80",
					Name:         "Recycled Copy Paper 80gsm",
					Quantity:     10,
					Unit:         "ream",
					UnitPrice:    decimal.RequireFromString("4.455"),
					TotalPrice:   decimal.RequireFromString("44.55"),
					LeadTimeDays: 5,
					Certs:        []string{"FSC Recycled"},
				},
			},
			Subtotal:            decimal.RequireFromString("44.55"),
			MaxLeadTimeDays:     5,
			CostSavings:         decimal.RequireFromString("-4.50"),
			CO2eSavings:         decimal.RequireFromString("7.00"),
			SustainabilityScore: 74,
			CreatedAt:           created,
		},
	}
	router := newOrderRouter(t, svc)

	body := `{"selections":[{"sku":"PAPER-RCY-80","quantity":10,"price_delta":{"absolute":"0.45","percentage":"10.0%","improved":false}}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(svc.lastCmd.Selections) != 1 {
		t.Fatalf("expected 1 selection, got %d", len(svc.lastCmd.Selections))
	}
	sel := svc.lastCmd.Selections[0]
	if sel.SKU != "PAPER-RCY-80" || sel.Quantity != 10 {
		t.Fatalf("unexpected selection: %+v", sel)
	}
	if sel.PriceDelta == nil || sel.PriceDelta.Absolute != "0.45" {
		t.Fatalf("expected price delta to be forwarded, got %+v", sel.PriceDelta)
	}
	if sel.CO2eDelta != nil {
		t.Fatalf("expected nil co2e delta, got %+v", sel.CO2eDelta)
	}

	var payload orderPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.OrderID != "PO-TEST1" || payload.Subtotal != "44.55" {
		t.Fatalf("unexpected order payload: %+v", payload)
	}
	if payload.Items[0].UnitPrice != "4.46" {
		t.Fatalf("expected rounded unit price 4.46, got %s", payload.Items[0].UnitPrice)
	}
	if payload.CreatedAt != "2025-06-15T12:00:00Z" {
		t.Fatalf("unexpected created_at: %s", payload.CreatedAt)
	}
}

func TestCreateOrderEndpointMapsValidationError(t *testing.T) {
	svc := &stubProcurementService{orderErr: services.ErrProcurementInvalidInput}
	router := newOrderRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader(`{"selections":[]}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestEmitQuoteEndpointRebuildsOrder(t *testing.T) {
	generated := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := &stubProcurementService{
		quote: domain.Quote{
			ID:       "QT-TEST2",
			OrderID:  "PO-TEST1",
			Subtotal: decimal.RequireFromString("44.55"),
			Tax:      decimal.RequireFromString("3.56"),
			Total:    decimal.RequireFromString("48.11"),
			Summary:  "Draft order ready.",
			Highlights: domain.QuoteHighlights{
				CO2eImpact:     "7.00 kg CO2e saved",
				CostImpact:     "$0.00 saved",
				Certifications: []string{"FSC Recycled"},
				Score:          "74/100",
			},
			GeneratedAt: generated,
			ValidUntil:  generated.AddDate(0, 0, 30),
		},
	}
	router := newOrderRouter(t, svc)

	body := `{
		"items": [{"sku":"PAPER-RCY-80","name":"Recycled Copy Paper 80gsm","quantity":10,"unit":"ream","unit_price":"4.46","total_price":"44.55","eta_days":5}],
		"subtotal": "44.55",
		"max_eta_days": 5,
		"cost_savings": "-4.50",
		"co2e_savings": "7.00",
		"sustainability_score": 74
	}`
	req := httptest.NewRequest(http.MethodPost, "/orders/PO-TEST1/quote", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if svc.lastOrder.ID != "PO-TEST1" {
		t.Fatalf("expected order id forwarded, got %q", svc.lastOrder.ID)
	}
	if !svc.lastOrder.Subtotal.Equal(decimal.RequireFromString("44.55")) {
		t.Fatalf("unexpected subtotal forwarded: %s", svc.lastOrder.Subtotal)
	}
	if len(svc.lastOrder.Items) != 1 || svc.lastOrder.Items[0].SKU != "PAPER-RCY-80" {
		t.Fatalf("unexpected items forwarded: %+v", svc.lastOrder.Items)
	}

	var payload quotePayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.QuoteID != "QT-TEST2" || payload.Total != "48.11" {
		t.Fatalf("unexpected quote payload: %+v", payload)
	}
	if payload.ValidUntil != "2025-07-15" {
		t.Fatalf("unexpected valid_until: %s", payload.ValidUntil)
	}
	if payload.Highlights.Score != "74/100" {
		t.Fatalf("unexpected highlights: %+v", payload.Highlights)
	}
}

func TestEmitQuoteEndpointRejectsBadDecimal(t *testing.T) {
	router := newOrderRouter(t, &stubProcurementService{})

	body := `{"subtotal":"not-a-number"}`
	req := httptest.NewRequest(http.MethodPost, "/orders/PO-1/quote", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestEmitQuoteEndpointRejectsMismatchedOrderID(t *testing.T) {
	router := newOrderRouter(t, &stubProcurementService{})

	body := `{"order_id":"PO-OTHER","subtotal":"1.00"}`
	req := httptest.NewRequest(http.MethodPost, "/orders/PO-1/quote", strings.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
