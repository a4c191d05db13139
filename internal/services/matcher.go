package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/leaf-procure/api/internal/domain"
)

const eventAlternativesMatch = "alternatives.match"

// ErrAlternativesInvalidInput signals the caller provided invalid line items.
var ErrAlternativesInvalidInput = errors.New("alternatives: invalid input")

// matchRule routes a requirement description to catalog categories and,
// where a conventional baseline exists, the reference SKU deltas are
// computed against. Rules are evaluated in order; the first keyword hit
// wins.
type matchRule struct {
	keywords     []string
	categories   []domain.ProductCategory
	referenceSKU string
}

var matchRules = []matchRule{
	{keywords: []string{"paper", "folder"}, categories: []domain.ProductCategory{domain.CategoryOfficeSupplies}, referenceSKU: "PAPER-STD-80"},
	{keywords: []string{"notebook"}, categories: []domain.ProductCategory{domain.CategoryOfficeSupplies}},
	{keywords: []string{"towel"}, categories: []domain.ProductCategory{domain.CategoryJanitorial}, referenceSKU: "TOWEL-STD-2P"},
	{keywords: []string{"pen"}, categories: []domain.ProductCategory{domain.CategoryOfficeSupplies}, referenceSKU: "PEN-STD-BLK"},
	{keywords: []string{"cleaner", "cleaning", "solution"}, categories: []domain.ProductCategory{domain.CategoryJanitorial}, referenceSKU: "CLEAN-STD-ALL"},
	{keywords: []string{"ethernet", "cat6", "network cable"}, categories: []domain.ProductCategory{domain.CategoryITHardware}},
	{keywords: []string{"thermal paste", "thermal"}, categories: []domain.ProductCategory{domain.CategoryITHardware}},
	{keywords: []string{"label"}, categories: []domain.ProductCategory{domain.CategoryITSupplies}},
	{keywords: []string{"wrist", "anti static", "esd"}, categories: []domain.ProductCategory{domain.CategoryITHardware}},
}

// syntheticBuckets cover common office items absent from the catalog.
// Variants carry full sustainability attributes so they flow through the
// same filtering and delta math as real products.
var syntheticBuckets = []struct {
	keywords []string
	variants []domain.Product
}{
	{
		keywords: []string{"welcome", "handbook", "folder"},
		variants: []domain.Product{
			syntheticProduct("FOLDER-STD-LEGAL", "Presentation Folder Standard", "1.25", 0, "0.15", nil, 3, 50),
			syntheticProduct("FOLDER-RCY-LEGAL", "Presentation Folder Recycled", "1.45", 75, "0.08", []string{"FSC Recycled", "Post-Consumer"}, 5, 50),
		},
	},
	{
		keywords: []string{"badge", "lanyard"},
		variants: []domain.Product{
			syntheticProduct("BADGE-STD-PLASTIC", "Name Badge Plastic Standard", "0.85", 0, "0.25", nil, 2, 25),
			syntheticProduct("BADGE-ECO-BAMBOO", "Name Badge Eco-Bamboo", "1.15", 0, "0.12", []string{"Sustainable Materials"}, 7, 25),
		},
	},
	{
		keywords: []string{"water", "bottle"},
		variants: []domain.Product{
			syntheticProduct("BOTTLE-STD-500ML", "Water Bottle 500ml Standard", "3.50", 0, "1.80", nil, 5, 12),
			syntheticProduct("BOTTLE-ECO-500ML", "Water Bottle 500ml Recycled Steel", "8.50", 85, "0.95", []string{"Recycled Content", "BPA-Free"}, 10, 12),
		},
	},
	{
		keywords: []string{"notebook", "note"},
		variants: []domain.Product{
			syntheticProduct("NOTE-STD-SPIRAL", "Spiral Notebook Standard", "3.50", 0, "0.45", nil, 2, 25),
			syntheticProduct("NOTE-RCY-SPIRAL", "Spiral Notebook Recycled Paper", "4.20", 80, "0.30", []string{"FSC Recycled", "Post-Consumer"}, 3, 25),
		},
	},
}

func syntheticProduct(sku, name, price string, recycledPct int, co2e string, certs []string, leadDays, moq int) domain.Product {
	return domain.Product{
		SKU:            sku,
		Name:           name,
		Category:       domain.CategoryOfficeSupplies,
		Price:          decimal.RequireFromString(price),
		Unit:           "each",
		RecycledPct:    recycledPct,
		CO2ePerUnit:    decimal.RequireFromString(co2e),
		Certifications: certs,
		LeadTimeDays:   leadDays,
		MinOrderQty:    moq,
		Synthetic:      true,
	}
}

// genericVariants backs requirements no bucket recognises. Names embed
// the requirement description so results stay readable.
func genericVariants(desc string) []domain.Product {
	variants := []domain.Product{
		syntheticProduct("GEN-STD-OFFICE", desc+" standard", "5.00", 0, "1.20", nil, 3, 10),
		syntheticProduct("GEN-RCY-40", desc+" partial recycled", "5.60", 40, "0.95", []string{"Recycled Content"}, 5, 10),
		syntheticProduct("GEN-RCY-80", desc+" high recycled", "6.10", 80, "0.70", []string{"Recycled Content", "Low Carbon"}, 6, 10),
	}
	return variants
}

// AlternativeServiceDeps bundles the collaborators required to construct an alternative service.
type AlternativeServiceDeps struct {
	Catalog CatalogReader
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

type alternativeService struct {
	catalog CatalogReader
	logger  func(context.Context, string, map[string]any)
}

// NewAlternativeService wires dependencies into a concrete AlternativeService implementation.
func NewAlternativeService(deps AlternativeServiceDeps) (AlternativeService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("alternative service: catalog reader is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &alternativeService{catalog: deps.Catalog, logger: logger}, nil
}

func (s *alternativeService) FindAlternatives(ctx context.Context, items []LineItem) ([]ItemAlternatives, error) {
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			return nil, fmt.Errorf("%w: item %d missing description", ErrAlternativesInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", ErrAlternativesInvalidInput, i)
		}
	}

	results := make([]ItemAlternatives, 0, len(items))
	for _, item := range items {
		result := s.alternativesFor(item)
		s.logger(ctx, eventAlternativesMatch, map[string]any{
			"description":  item.Description,
			"category":     string(result.Category),
			"alternatives": len(result.Alternatives),
		})
		results = append(results, result)
	}
	return results, nil
}

func (s *alternativeService) alternativesFor(item LineItem) ItemAlternatives {
	desc := strings.ToLower(item.Description)

	rule, matched := ruleFor(desc)
	var candidates []domain.Product
	if matched {
		candidates = s.catalog.ProductsByCategory(rule.categories...)
	}

	// A category can be broad; prefer products whose name mentions the
	// leading requirement word when any do.
	if len(candidates) > 0 {
		if first := firstWord(desc); first != "" {
			var narrowed []domain.Product
			for _, p := range candidates {
				if strings.Contains(strings.ToLower(p.Name), first) {
					narrowed = append(narrowed, p)
				}
			}
			if len(narrowed) > 0 {
				candidates = narrowed
			}
		}
	}

	if len(candidates) == 0 {
		candidates = synthesizeCandidates(desc)
	}

	var reference *domain.Product
	if matched && rule.referenceSKU != "" {
		if ref, ok := s.catalog.Product(rule.referenceSKU); ok {
			reference = &ref
		}
	}

	category := domain.ProductCategory("")
	if matched && len(rule.categories) > 0 {
		category = rule.categories[0]
	} else if len(candidates) > 0 {
		category = candidates[0].Category
	}

	var alternatives []Alternative
	for _, p := range candidates {
		if !p.Sustainable() {
			continue
		}
		alternatives = append(alternatives, Alternative{
			Product:    p,
			PriceDelta: computeDelta(p.Price, reference, func(ref domain.Product) decimal.Decimal { return ref.Price }),
			CO2eDelta:  computeDelta(p.CO2ePerUnit, reference, func(ref domain.Product) decimal.Decimal { return ref.CO2ePerUnit }),
		})
	}

	return ItemAlternatives{Item: item, Category: category, Alternatives: alternatives}
}

func ruleFor(desc string) (matchRule, bool) {
	for _, rule := range matchRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(desc, keyword) {
				return rule, true
			}
		}
	}
	return matchRule{}, false
}

func firstWord(desc string) string {
	fields := strings.Fields(desc)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func synthesizeCandidates(desc string) []domain.Product {
	for _, bucket := range syntheticBuckets {
		for _, keyword := range bucket.keywords {
			if strings.Contains(desc, keyword) {
				out := make([]domain.Product, len(bucket.variants))
				copy(out, bucket.variants)
				return out
			}
		}
	}
	return genericVariants(desc)
}

var zeroDelta = domain.Delta{Absolute: "0.00", Percentage: "0.0%", Improved: false}

// computeDelta reports alternative minus reference. Without a reference
// product the delta is zero and not an improvement.
func computeDelta(altValue decimal.Decimal, reference *domain.Product, refValue func(domain.Product) decimal.Decimal) domain.Delta {
	if reference == nil {
		return zeroDelta
	}
	ref := refValue(*reference)
	delta := altValue.Sub(ref)
	percentage := "0.0%"
	if !ref.IsZero() {
		percentage = delta.Div(ref).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
	}
	return domain.Delta{
		Absolute:   delta.StringFixed(2),
		Percentage: percentage,
		Improved:   delta.IsNegative(),
	}
}
