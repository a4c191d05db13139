package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/leaf-procure/api/internal/platform/httpx"
	"github.com/leaf-procure/api/internal/services"
)

// ExtractionHandlers exposes procurement document parsing endpoints.
type ExtractionHandlers struct {
	extractor services.ExtractorService
	maxBytes  int64
}

// NewExtractionHandlers constructs handlers backed by the extractor service.
func NewExtractionHandlers(extractor services.ExtractorService, maxBytes int64) (*ExtractionHandlers, error) {
	if extractor == nil {
		return nil, errors.New("extraction handlers: extractor service is required")
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodySize
	}
	return &ExtractionHandlers{extractor: extractor, maxBytes: maxBytes}, nil
}

// Register mounts the extraction routes on the provided router.
func (h *ExtractionHandlers) Register(r chi.Router) {
	r.Post("/extract", h.extract)
}

type extractRequest struct {
	Text     string `json:"text"`
	FileName string `json:"file_name,omitempty"`
}

type lineItemPayload struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit"`
}

type extractResponse struct {
	Items  []lineItemPayload `json:"items"`
	Source string            `json:"source"`
}

func (h *ExtractionHandlers) extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, h.maxBytes)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req extractRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	// Binary uploads arrive as data URIs from misconfigured clients;
	// decoding belongs upstream of this service.
	if strings.HasPrefix(strings.TrimSpace(req.Text), "data:") {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "binary uploads must be decoded before extraction", http.StatusBadRequest))
		return
	}

	result := h.extractor.Extract(ctx, req.Text)

	items := make([]lineItemPayload, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, lineItemPayload{
			Description: item.Description,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
		})
	}

	writeJSONResponse(w, http.StatusOK, extractResponse{
		Items:  items,
		Source: string(result.Source),
	})
}
