package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	domain "github.com/leaf-procure/api/internal/domain"
	"github.com/leaf-procure/api/internal/platform/httpx"
	"github.com/leaf-procure/api/internal/services"
)

// OrderHandlers exposes stock checks, order assembly and quote emission.
type OrderHandlers struct {
	procurement services.ProcurementService
	maxBytes    int64
}

// NewOrderHandlers constructs handlers backed by the procurement service.
func NewOrderHandlers(procurement services.ProcurementService, maxBytes int64) (*OrderHandlers, error) {
	if procurement == nil {
		return nil, errors.New("order handlers: procurement service is required")
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodySize
	}
	return &OrderHandlers{procurement: procurement, maxBytes: maxBytes}, nil
}

// RegisterStock mounts the stock probe routes on the provided router.
func (h *OrderHandlers) RegisterStock(r chi.Router) {
	r.Post("/check", h.checkStock)
}

// RegisterOrders mounts the order and quote routes on the provided router.
func (h *OrderHandlers) RegisterOrders(r chi.Router) {
	r.Post("/", h.createOrder)
	r.Post("/{orderID}/quote", h.emitQuote)
}

type stockCheckRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type stockCheckResponse struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Available      bool   `json:"available"`
	OnHand         int    `json:"on_hand"`
	RequestedQty   int    `json:"requested_qty"`
	UnitPrice      string `json:"unit_price"`
	PriceTier      string `json:"price_tier"`
	BulkDiscount   bool   `json:"bulk_discount_applied"`
	LeadTimeDays   int    `json:"eta_days"`
	EstimatedTotal string `json:"total_price"`
}

func (h *OrderHandlers) checkStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, h.maxBytes)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req stockCheckRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	check, err := h.procurement.CheckStock(ctx, req.SKU, req.Quantity)
	if err != nil {
		writeProcurementError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, stockCheckResponse{
		SKU:            check.SKU,
		Name:           check.Name,
		Available:      check.Available,
		OnHand:         check.OnHand,
		RequestedQty:   check.RequestedQty,
		UnitPrice:      check.UnitPrice.StringFixed(2),
		PriceTier:      check.PriceTier,
		BulkDiscount:   check.BulkDiscount,
		LeadTimeDays:   check.LeadTimeDays,
		EstimatedTotal: check.EstimatedTotal.StringFixed(2),
	})
}

type selectionPayload struct {
	SKU        string        `json:"sku"`
	Quantity   int           `json:"quantity"`
	PriceDelta *deltaPayload `json:"price_delta,omitempty"`
	CO2eDelta  *deltaPayload `json:"co2e_delta,omitempty"`
}

type createOrderRequest struct {
	Selections []selectionPayload `json:"selections"`
}

type orderItemPayload struct {
	SKU          string   `json:"sku"`
	Name         string   `json:"name"`
	Quantity     int      `json:"quantity"`
	Unit         string   `json:"unit,omitempty"`
	UnitPrice    string   `json:"unit_price"`
	TotalPrice   string   `json:"total_price"`
	LeadTimeDays int      `json:"eta_days"`
	Certs        []string `json:"certs,omitempty"`
}

type orderPayload struct {
	OrderID             string             `json:"order_id"`
	Items               []orderItemPayload `json:"items"`
	Subtotal            string             `json:"subtotal"`
	MaxLeadTimeDays     int                `json:"max_eta_days"`
	CostSavings         string             `json:"cost_savings"`
	CO2eSavings         string             `json:"co2e_savings"`
	SustainabilityScore int                `json:"sustainability_score"`
	CreatedAt           string             `json:"created_at"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, h.maxBytes)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req createOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	cmd := services.CreateOrderCommand{Selections: make([]domain.Selection, 0, len(req.Selections))}
	for _, sel := range req.Selections {
		selection := domain.Selection{SKU: sel.SKU, Quantity: sel.Quantity}
		if sel.PriceDelta != nil {
			selection.PriceDelta = &domain.Delta{
				Absolute:   sel.PriceDelta.Absolute,
				Percentage: sel.PriceDelta.Percentage,
				Improved:   sel.PriceDelta.Improved,
			}
		}
		if sel.CO2eDelta != nil {
			selection.CO2eDelta = &domain.Delta{
				Absolute:   sel.CO2eDelta.Absolute,
				Percentage: sel.CO2eDelta.Percentage,
				Improved:   sel.CO2eDelta.Improved,
			}
		}
		cmd.Selections = append(cmd.Selections, selection)
	}

	order, err := h.procurement.CreateOrder(ctx, cmd)
	if err != nil {
		writeProcurementError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toOrderPayload(order))
}

type emitQuoteRequest struct {
	OrderID             string             `json:"order_id"`
	Items               []orderItemPayload `json:"items"`
	Subtotal            string             `json:"subtotal"`
	MaxLeadTimeDays     int                `json:"max_eta_days"`
	CostSavings         string             `json:"cost_savings"`
	CO2eSavings         string             `json:"co2e_savings"`
	SustainabilityScore int                `json:"sustainability_score"`
}

type quotePayload struct {
	QuoteID     string                 `json:"quote_id"`
	OrderID     string                 `json:"order_id"`
	Subtotal    string                 `json:"subtotal"`
	Tax         string                 `json:"tax"`
	Total       string                 `json:"total"`
	Summary     string                 `json:"summary"`
	Highlights  quoteHighlightsPayload `json:"sustainability_highlights"`
	GeneratedAt string                 `json:"generated_at"`
	ValidUntil  string                 `json:"valid_until"`
}

type quoteHighlightsPayload struct {
	CO2eImpact     string   `json:"co2e_impact"`
	CostImpact     string   `json:"cost_impact"`
	Certifications []string `json:"certifications"`
	Score          string   `json:"sustainability_score"`
}

func (h *OrderHandlers) emitQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, h.maxBytes)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req emitQuoteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	// The path names the order; a conflicting body id is a client bug.
	pathID := chi.URLParam(r, "orderID")
	if req.OrderID != "" && req.OrderID != pathID {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id in body does not match path", http.StatusBadRequest))
		return
	}
	req.OrderID = pathID

	order, err := orderFromRequest(req)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	quote, err := h.procurement.EmitQuote(ctx, order)
	if err != nil {
		writeProcurementError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, quotePayload{
		QuoteID:     quote.ID,
		OrderID:     quote.OrderID,
		Subtotal:    quote.Subtotal.StringFixed(2),
		Tax:         quote.Tax.StringFixed(2),
		Total:       quote.Total.StringFixed(2),
		Summary:     quote.Summary,
		GeneratedAt: formatTime(quote.GeneratedAt),
		ValidUntil:  quote.ValidUntil.UTC().Format("2006-01-02"),
		Highlights: quoteHighlightsPayload{
			CO2eImpact:     quote.Highlights.CO2eImpact,
			CostImpact:     quote.Highlights.CostImpact,
			Certifications: quote.Highlights.Certifications,
			Score:          quote.Highlights.Score,
		},
	})
}

func orderFromRequest(req emitQuoteRequest) (domain.Order, error) {
	order := domain.Order{
		ID:                  req.OrderID,
		MaxLeadTimeDays:     req.MaxLeadTimeDays,
		SustainabilityScore: req.SustainabilityScore,
	}

	var err error
	if order.Subtotal, err = parseDecimalField(req.Subtotal, "subtotal"); err != nil {
		return domain.Order{}, err
	}
	if order.CostSavings, err = parseDecimalField(req.CostSavings, "cost_savings"); err != nil {
		return domain.Order{}, err
	}
	if order.CO2eSavings, err = parseDecimalField(req.CO2eSavings, "co2e_savings"); err != nil {
		return domain.Order{}, err
	}

	for _, item := range req.Items {
		unitPrice, err := parseDecimalField(item.UnitPrice, "items.unit_price")
		if err != nil {
			return domain.Order{}, err
		}
		totalPrice, err := parseDecimalField(item.TotalPrice, "items.total_price")
		if err != nil {
			return domain.Order{}, err
		}
		order.Items = append(order.Items, domain.OrderItem{
			SKU:          item.SKU,
			Name:         item.Name,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			UnitPrice:    unitPrice,
			TotalPrice:   totalPrice,
			LeadTimeDays: item.LeadTimeDays,
			Certs:        item.Certs,
		})
	}
	return order, nil
}

func parseDecimalField(value, field string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, errors.New("invalid decimal value for " + field)
	}
	return parsed, nil
}

func toOrderPayload(order domain.Order) orderPayload {
	payload := orderPayload{
		OrderID:             order.ID,
		Items:               make([]orderItemPayload, 0, len(order.Items)),
		Subtotal:            order.Subtotal.StringFixed(2),
		MaxLeadTimeDays:     order.MaxLeadTimeDays,
		CostSavings:         order.CostSavings.StringFixed(2),
		CO2eSavings:         order.CO2eSavings.StringFixed(2),
		SustainabilityScore: order.SustainabilityScore,
		CreatedAt:           formatTime(order.CreatedAt),
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, orderItemPayload{
			SKU:          item.SKU,
			Name:         item.Name,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			UnitPrice:    item.UnitPrice.StringFixed(2),
			TotalPrice:   item.TotalPrice.StringFixed(2),
			LeadTimeDays: item.LeadTimeDays,
			Certs:        item.Certs,
		})
	}
	return payload
}

func writeProcurementError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProcurementInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", err.Error(), http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "procurement operation failed", http.StatusInternalServerError))
	}
}
