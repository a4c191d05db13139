package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ProductCategory groups catalog products by the procurement aisle they
// belong to. Category values are stable identifiers shared with catalog
// data files.
type ProductCategory string

const (
	// CategoryOfficeSupplies covers paper, pens, folders and similar goods.
	CategoryOfficeSupplies ProductCategory = "office_supplies"
	// CategoryJanitorial covers towels, cleaners and facility consumables.
	CategoryJanitorial ProductCategory = "janitorial"
	// CategoryITHardware covers cabling, thermal supplies and ESD gear.
	CategoryITHardware ProductCategory = "it_hardware"
	// CategoryITSupplies covers printable labels and related accessories.
	CategoryITSupplies ProductCategory = "it_supplies"
)

// Product is a marketplace catalog entry enriched with the sustainability
// attributes alternative matching and scoring operate on.
type Product struct {
	SKU            string
	Name           string
	Category       ProductCategory
	Price          decimal.Decimal
	Unit           string
	RecycledPct    int
	CO2ePerUnit    decimal.Decimal
	Certifications []string
	LeadTimeDays   int
	MinOrderQty    int
	Synthetic      bool
}

// Sustainable reports whether a product qualifies as a sustainable
// alternative: any recycled content, or a per-unit footprint below
// 1.5 kg CO2e.
func (p Product) Sustainable() bool {
	return p.RecycledPct > 0 || p.CO2ePerUnit.LessThan(decimal.NewFromFloat(1.5))
}

// InventoryRecord tracks warehouse stock for a catalog SKU.
type InventoryRecord struct {
	SKU       string
	OnHand    int
	Warehouse string
}

// ExtractionSource tells callers how a set of line items was produced.
type ExtractionSource string

const (
	// SourceDynamic marks items parsed directly from document text.
	SourceDynamic ExtractionSource = "dynamic"
	// SourceInferred marks items guessed from document keywords when no
	// line matched any pattern.
	SourceInferred ExtractionSource = "inferred"
	// SourceFallback marks the fixed supply list returned when extraction
	// failed outright.
	SourceFallback ExtractionSource = "error-fallback"
)

// LineItem is a normalized requirement pulled out of a procurement
// document: what is needed, how much, and in which unit.
type LineItem struct {
	Description string
	Quantity    int
	Unit        string
}

// Key returns the dedupe identity of a line item.
func (li LineItem) Key() string {
	return li.Description + "|" + strconv.Itoa(li.Quantity) + "|" + li.Unit
}

// Extraction bundles the extracted line items with their provenance.
type Extraction struct {
	Items  []LineItem
	Source ExtractionSource
}

// Delta compares an alternative product against a conventional reference
// on one axis (price or CO2e). Absolute carries the signed difference as
// a fixed-point string, Percentage the relative change suffixed with "%".
// Improved is true when the alternative is lower than the reference.
type Delta struct {
	Absolute   string
	Percentage string
	Improved   bool
}

// Alternative pairs a sustainable product with its deltas against the
// conventional reference product for the requirement's category.
type Alternative struct {
	Product    Product
	PriceDelta Delta
	CO2eDelta  Delta
}

// ItemAlternatives holds the ranked sustainable options for one line item.
type ItemAlternatives struct {
	Item         LineItem
	Category     ProductCategory
	Alternatives []Alternative
}

// StockCheck is the answer to an availability probe for one SKU.
type StockCheck struct {
	SKU            string
	Name           string
	Available      bool
	OnHand         int
	RequestedQty   int
	UnitPrice      decimal.Decimal
	PriceTier      string
	BulkDiscount   bool
	LeadTimeDays   int
	EstimatedTotal decimal.Decimal
}

// Price tiers reported by stock checks.
const (
	PriceTierStandard = "standard"
	PriceTierBulk     = "bulk"
)

// Selection is a buyer-confirmed choice feeding order assembly. The
// optional deltas carry over from alternative matching so order totals
// can report accumulated savings.
type Selection struct {
	SKU        string
	Quantity   int
	PriceDelta *Delta
	CO2eDelta  *Delta
}

// OrderItem is one priced line of a draft purchase order.
type OrderItem struct {
	SKU          string
	Name         string
	Quantity     int
	Unit         string
	UnitPrice    decimal.Decimal
	TotalPrice   decimal.Decimal
	LeadTimeDays int
	Certs        []string
}

// Order is a draft purchase order assembled from confirmed selections.
// CostSavings and CO2eSavings are signed: positive values mean the order
// saves money / emissions relative to the conventional baseline.
type Order struct {
	ID                  string
	Items               []OrderItem
	Subtotal            decimal.Decimal
	MaxLeadTimeDays     int
	CostSavings         decimal.Decimal
	CO2eSavings         decimal.Decimal
	SustainabilityScore int
	CreatedAt           time.Time
}

// QuoteHighlights summarizes the sustainability story of a quote in
// presentation-ready strings.
type QuoteHighlights struct {
	CO2eImpact     string
	CostImpact     string
	Certifications []string
	Score          string
}

// Quote is the customer-facing rendering of a draft order with tax and
// validity window applied.
type Quote struct {
	ID          string
	OrderID     string
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	Summary     string
	Highlights  QuoteHighlights
	GeneratedAt time.Time
	ValidUntil  time.Time
}
