package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/leaf-procure/api/internal/domain"
	"github.com/leaf-procure/api/internal/platform/httpx"
	"github.com/leaf-procure/api/internal/platform/pagination"
	"github.com/leaf-procure/api/internal/services"
)

// ProductHandlers serves read-only catalog listings.
type ProductHandlers struct {
	catalog services.CatalogReader
}

// NewProductHandlers constructs handlers backed by the catalog reader.
func NewProductHandlers(catalog services.CatalogReader) (*ProductHandlers, error) {
	if catalog == nil {
		return nil, errors.New("product handlers: catalog reader is required")
	}
	return &ProductHandlers{catalog: catalog}, nil
}

// Register mounts the product routes on the provided router.
func (h *ProductHandlers) Register(r chi.Router) {
	r.Get("/", h.list)
}

type productPayload struct {
	SKU            string   `json:"sku"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Price          string   `json:"price"`
	Unit           string   `json:"unit"`
	RecycledPct    int      `json:"recycled_pct"`
	CO2ePerUnit    string   `json:"co2e_per_unit"`
	Certifications []string `json:"certifications,omitempty"`
	LeadTimeDays   int      `json:"lead_time_days"`
	MinOrderQty    int      `json:"min_order_qty"`
	OnHand         int      `json:"on_hand"`
}

type productListResponse struct {
	Products      []productPayload `json:"products"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

var knownCategories = map[domain.ProductCategory]struct{}{
	domain.CategoryOfficeSupplies: {},
	domain.CategoryJanitorial:     {},
	domain.CategoryITHardware:     {},
	domain.CategoryITSupplies:     {},
}

func (h *ProductHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := pagination.FromRequest(r, pagination.Options{})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	var products []domain.Product
	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		category := domain.ProductCategory(strings.ToLower(raw))
		if _, ok := knownCategories[category]; !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown product category", http.StatusBadRequest))
			return
		}
		products = h.catalog.ProductsByCategory(category)
	} else {
		products = h.catalog.Products()
	}

	// Listings are SKU-ordered, so the cursor is the last SKU of the
	// previous page.
	if after := params.Cursor.AfterSKU; after != "" {
		idx := 0
		for idx < len(products) && products[idx].SKU <= after {
			idx++
		}
		products = products[idx:]
	}

	nextToken := ""
	if len(products) > params.PageSize {
		products = products[:params.PageSize]
		token, err := pagination.EncodeToken(pagination.Cursor{AfterSKU: products[len(products)-1].SKU})
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "failed to build page token", http.StatusInternalServerError))
			return
		}
		nextToken = token
	}

	resp := productListResponse{
		Products:      make([]productPayload, 0, len(products)),
		NextPageToken: nextToken,
	}
	for _, product := range products {
		resp.Products = append(resp.Products, productPayload{
			SKU:            product.SKU,
			Name:           product.Name,
			Category:       string(product.Category),
			Price:          product.Price.StringFixed(2),
			Unit:           product.Unit,
			RecycledPct:    product.RecycledPct,
			CO2ePerUnit:    product.CO2ePerUnit.StringFixed(2),
			Certifications: product.Certifications,
			LeadTimeDays:   product.LeadTimeDays,
			MinOrderQty:    product.MinOrderQty,
			OnHand:         h.catalog.OnHand(product.SKU),
		})
	}
	writeJSONResponse(w, http.StatusOK, resp)
}
