package services

import (
	"context"

	domain "github.com/leaf-procure/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product          = domain.Product
	ProductCategory  = domain.ProductCategory
	LineItem         = domain.LineItem
	Extraction       = domain.Extraction
	Delta            = domain.Delta
	Alternative      = domain.Alternative
	ItemAlternatives = domain.ItemAlternatives
	StockCheck       = domain.StockCheck
	Selection        = domain.Selection
	Order            = domain.Order
	OrderItem        = domain.OrderItem
	Quote            = domain.Quote
	QuoteHighlights  = domain.QuoteHighlights
)

// CatalogReader is the read-only catalog surface services depend on. The
// catalog store satisfies it; tests substitute fixtures.
type CatalogReader interface {
	Product(sku string) (domain.Product, bool)
	Products() []domain.Product
	ProductsByCategory(categories ...domain.ProductCategory) []domain.Product
	OnHand(sku string) int
}

// ExtractorService turns free-form procurement documents into normalized
// line items, falling back to inferred or fixed items when parsing fails.
type ExtractorService interface {
	Extract(ctx context.Context, text string) Extraction
}

// AlternativeService finds sustainable substitutes for extracted line
// items and quantifies their price and footprint deltas.
type AlternativeService interface {
	FindAlternatives(ctx context.Context, items []LineItem) ([]ItemAlternatives, error)
}

// CreateOrderCommand carries the buyer-confirmed selections an order is
// assembled from.
type CreateOrderCommand struct {
	Selections []Selection
}

// ProcurementService assembles draft purchase orders from confirmed
// selections and renders customer-facing quotes.
type ProcurementService interface {
	CheckStock(ctx context.Context, sku string, quantity int) (StockCheck, error)
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	EmitQuote(ctx context.Context, order Order) (Quote, error)
}
