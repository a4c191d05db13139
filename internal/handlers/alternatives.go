package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/leaf-procure/api/internal/domain"
	"github.com/leaf-procure/api/internal/platform/httpx"
	"github.com/leaf-procure/api/internal/services"
)

// AlternativeHandlers exposes sustainable alternative matching endpoints.
type AlternativeHandlers struct {
	alternatives services.AlternativeService
	maxBytes     int64
}

// NewAlternativeHandlers constructs handlers backed by the alternative service.
func NewAlternativeHandlers(alternatives services.AlternativeService, maxBytes int64) (*AlternativeHandlers, error) {
	if alternatives == nil {
		return nil, errors.New("alternative handlers: alternative service is required")
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodySize
	}
	return &AlternativeHandlers{alternatives: alternatives, maxBytes: maxBytes}, nil
}

// Register mounts the alternative routes on the provided router.
func (h *AlternativeHandlers) Register(r chi.Router) {
	r.Post("/", h.find)
}

type alternativesRequest struct {
	Items []lineItemPayload `json:"items"`
}

type deltaPayload struct {
	Absolute   string `json:"absolute"`
	Percentage string `json:"percentage"`
	Improved   bool   `json:"improved"`
}

type alternativePayload struct {
	SKU            string       `json:"sku"`
	Name           string       `json:"name"`
	Price          string       `json:"price"`
	Unit           string       `json:"unit"`
	RecycledPct    int          `json:"recycled_pct"`
	CO2ePerUnit    string       `json:"co2e_per_unit"`
	Certifications []string     `json:"certifications"`
	LeadTimeDays   int          `json:"lead_time_days"`
	MinOrderQty    int          `json:"min_order_qty"`
	Synthetic      bool         `json:"synthetic,omitempty"`
	PriceDelta     deltaPayload `json:"price_delta"`
	CO2eDelta      deltaPayload `json:"co2e_delta"`
}

type itemAlternativesPayload struct {
	Item         lineItemPayload      `json:"item"`
	Category     string               `json:"category,omitempty"`
	Alternatives []alternativePayload `json:"alternatives"`
}

type alternativesResponse struct {
	Results []itemAlternativesPayload `json:"results"`
}

func (h *AlternativeHandlers) find(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, h.maxBytes)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req alternativesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}
	if len(req.Items) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "at least one item is required", http.StatusBadRequest))
		return
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
		})
	}

	results, err := h.alternatives.FindAlternatives(ctx, items)
	if err != nil {
		if errors.Is(err, services.ErrAlternativesInvalidInput) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "failed to match alternatives", http.StatusInternalServerError))
		return
	}

	payload := alternativesResponse{Results: make([]itemAlternativesPayload, 0, len(results))}
	for _, result := range results {
		entry := itemAlternativesPayload{
			Item: lineItemPayload{
				Description: result.Item.Description,
				Quantity:    result.Item.Quantity,
				Unit:        result.Item.Unit,
			},
			Category:     string(result.Category),
			Alternatives: make([]alternativePayload, 0, len(result.Alternatives)),
		}
		for _, alt := range result.Alternatives {
			entry.Alternatives = append(entry.Alternatives, alternativePayload{
				SKU:            alt.Product.SKU,
				Name:           alt.Product.Name,
				Price:          alt.Product.Price.StringFixed(2),
				Unit:           alt.Product.Unit,
				RecycledPct:    alt.Product.RecycledPct,
				CO2ePerUnit:    alt.Product.CO2ePerUnit.StringFixed(2),
				Certifications: alt.Product.Certifications,
				LeadTimeDays:   alt.Product.LeadTimeDays,
				MinOrderQty:    alt.Product.MinOrderQty,
				Synthetic:      alt.Product.Synthetic,
				PriceDelta:     toDeltaPayload(alt.PriceDelta),
				CO2eDelta:      toDeltaPayload(alt.CO2eDelta),
			})
		}
		payload.Results = append(payload.Results, entry)
	}

	writeJSONResponse(w, http.StatusOK, payload)
}

func toDeltaPayload(delta domain.Delta) deltaPayload {
	return deltaPayload{
		Absolute:   delta.Absolute,
		Percentage: delta.Percentage,
		Improved:   delta.Improved,
	}
}
