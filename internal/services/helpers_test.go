package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/leaf-procure/api/internal/domain"
)

// catalogStub satisfies CatalogReader for service tests.
type catalogStub struct {
	products      map[string]domain.Product
	onHand        map[string]int
	defaultOnHand int
}

func newCatalogStub(products ...domain.Product) *catalogStub {
	stub := &catalogStub{
		products: make(map[string]domain.Product, len(products)),
		onHand:   make(map[string]int),
	}
	for _, p := range products {
		stub.products[p.SKU] = p
	}
	return stub
}

func (c *catalogStub) Product(sku string) (domain.Product, bool) {
	p, ok := c.products[sku]
	return p, ok
}

func (c *catalogStub) Products() []domain.Product {
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func (c *catalogStub) ProductsByCategory(categories ...domain.ProductCategory) []domain.Product {
	want := make(map[domain.ProductCategory]struct{}, len(categories))
	for _, cat := range categories {
		want[cat] = struct{}{}
	}
	var out []domain.Product
	for _, p := range c.Products() {
		if _, ok := want[p.Category]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (c *catalogStub) OnHand(sku string) int {
	if stock, ok := c.onHand[sku]; ok {
		return stock
	}
	return c.defaultOnHand
}

func testProduct(sku, name string, category domain.ProductCategory, price string, recycledPct int, co2e string, certs []string, leadDays, moq int) domain.Product {
	return domain.Product{
		SKU:            sku,
		Name:           name,
		Category:       category,
		Price:          decimal.RequireFromString(price),
		Unit:           "each",
		RecycledPct:    recycledPct,
		CO2ePerUnit:    decimal.RequireFromString(co2e),
		Certifications: certs,
		LeadTimeDays:   leadDays,
		MinOrderQty:    moq,
	}
}

func fixtureCatalog() *catalogStub {
	stub := newCatalogStub(
		testProduct("PAPER-STD-80", "A4 copy paper 80gsm", domain.CategoryOfficeSupplies, "4.50", 0, "1.80", nil, 3, 10),
		testProduct("PAPER-RCY-80", "A4 copy paper 80gsm recycled", domain.CategoryOfficeSupplies, "4.95", 100, "1.10", []string{"FSC Recycled", "EU Ecolabel"}, 5, 10),
		testProduct("PEN-STD-BLK", "Ballpoint pens black", domain.CategoryOfficeSupplies, "7.25", 0, "1.60", nil, 2, 5),
		testProduct("CLEAN-STD-ALL", "All-purpose cleaner", domain.CategoryJanitorial, "5.00", 0, "1.00", nil, 4, 10),
		testProduct("TOWEL-RCY-2P", "Hand towels 2-ply recycled", domain.CategoryJanitorial, "19.80", 60, "1.30", []string{"FSC Recycled"}, 4, 5),
	)
	stub.onHand = map[string]int{
		"PAPER-STD-80":  1200,
		"PAPER-RCY-80":  640,
		"PEN-STD-BLK":   80,
		"CLEAN-STD-ALL": 40,
		"TOWEL-RCY-2P":  25,
	}
	return stub
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}
