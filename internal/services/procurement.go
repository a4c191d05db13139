package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	domain "github.com/leaf-procure/api/internal/domain"
)

const (
	eventStockCheck       = "procurement.stock_check"
	eventOrderCreate      = "procurement.order_create"
	eventOrderItemSkipped = "procurement.order_item_skipped"
	eventQuoteEmit        = "procurement.quote_emit"

	orderIDPrefix = "PO-"
	quoteIDPrefix = "QT-"

	quoteValidityDays = 30
)

var (
	// ErrProcurementInvalidInput signals the caller provided invalid arguments.
	ErrProcurementInvalidInput = errors.New("procurement: invalid input")
	// ErrProductNotFound indicates the SKU is absent from the catalog.
	ErrProductNotFound = errors.New("procurement: product not found")

	bulkDiscountFactor = decimal.RequireFromString("0.9")
	taxRate            = decimal.RequireFromString("0.08")
)

// ProcurementServiceDeps bundles the collaborators required to construct a procurement service.
type ProcurementServiceDeps struct {
	Catalog     CatalogReader
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type procurementService struct {
	catalog CatalogReader
	clock   func() time.Time
	newID   func() string
	logger  func(context.Context, string, map[string]any)
}

// NewProcurementService wires dependencies into a concrete ProcurementService implementation.
func NewProcurementService(deps ProcurementServiceDeps) (ProcurementService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("procurement service: catalog reader is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &procurementService{
		catalog: deps.Catalog,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *procurementService) CheckStock(ctx context.Context, sku string, quantity int) (StockCheck, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return StockCheck{}, fmt.Errorf("%w: sku is required", ErrProcurementInvalidInput)
	}
	if quantity <= 0 {
		return StockCheck{}, fmt.Errorf("%w: quantity must be positive", ErrProcurementInvalidInput)
	}

	product, ok := s.catalog.Product(sku)
	if !ok {
		return StockCheck{}, fmt.Errorf("%w: %s", ErrProductNotFound, sku)
	}

	onHand := s.catalog.OnHand(sku)
	tier := domain.PriceTierStandard
	unitPrice := product.Price
	if quantity >= product.MinOrderQty {
		tier = domain.PriceTierBulk
		unitPrice = product.Price.Mul(bulkDiscountFactor)
	}

	check := StockCheck{
		SKU:            sku,
		Name:           product.Name,
		Available:      onHand >= quantity,
		OnHand:         onHand,
		RequestedQty:   quantity,
		UnitPrice:      unitPrice.Round(2),
		PriceTier:      tier,
		BulkDiscount:   tier == domain.PriceTierBulk,
		LeadTimeDays:   product.LeadTimeDays,
		EstimatedTotal: unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
	}

	s.logger(ctx, eventStockCheck, map[string]any{
		"sku":       sku,
		"qty":       quantity,
		"available": check.Available,
		"tier":      tier,
	})
	return check, nil
}

func (s *procurementService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	if len(cmd.Selections) == 0 {
		return Order{}, fmt.Errorf("%w: at least one selection is required", ErrProcurementInvalidInput)
	}
	for i, sel := range cmd.Selections {
		if strings.TrimSpace(sel.SKU) == "" {
			return Order{}, fmt.Errorf("%w: selection %d missing sku", ErrProcurementInvalidInput, i)
		}
		if sel.Quantity <= 0 {
			return Order{}, fmt.Errorf("%w: selection %d quantity must be positive", ErrProcurementInvalidInput, i)
		}
	}

	order := Order{
		ID:        orderIDPrefix + s.newID(),
		CreatedAt: s.clock(),
	}
	subtotal := decimal.Zero
	costSavings := decimal.Zero
	co2eSavings := decimal.Zero

	for _, sel := range cmd.Selections {
		check, err := s.CheckStock(ctx, sel.SKU, sel.Quantity)
		if err != nil {
			// Unknown SKUs are dropped rather than failing the whole
			// order; synthetic alternatives never reach the catalog.
			if errors.Is(err, ErrProductNotFound) {
				s.logger(ctx, eventOrderItemSkipped, map[string]any{
					"sku": sel.SKU,
					"qty": sel.Quantity,
				})
				continue
			}
			return Order{}, err
		}

		product, _ := s.catalog.Product(check.SKU)
		order.Items = append(order.Items, OrderItem{
			SKU:          check.SKU,
			Name:         check.Name,
			Quantity:     sel.Quantity,
			Unit:         product.Unit,
			UnitPrice:    check.UnitPrice,
			TotalPrice:   check.EstimatedTotal,
			LeadTimeDays: check.LeadTimeDays,
			Certs:        product.Certifications,
		})

		subtotal = subtotal.Add(check.EstimatedTotal)
		if check.LeadTimeDays > order.MaxLeadTimeDays {
			order.MaxLeadTimeDays = check.LeadTimeDays
		}

		qty := decimal.NewFromInt(int64(sel.Quantity))
		if sel.PriceDelta != nil {
			if delta, err := decimal.NewFromString(sel.PriceDelta.Absolute); err == nil {
				costSavings = costSavings.Sub(delta.Mul(qty))
			}
		}
		if sel.CO2eDelta != nil {
			if delta, err := decimal.NewFromString(sel.CO2eDelta.Absolute); err == nil {
				co2eSavings = co2eSavings.Sub(delta.Mul(qty))
			}
		}
	}

	order.Subtotal = subtotal.Round(2)
	order.CostSavings = costSavings.Round(2)
	order.CO2eSavings = co2eSavings.Round(2)
	order.SustainabilityScore = s.sustainabilityScore(order.Items)

	s.logger(ctx, eventOrderCreate, map[string]any{
		"orderId":  order.ID,
		"items":    len(order.Items),
		"subtotal": order.Subtotal.StringFixed(2),
		"score":    order.SustainabilityScore,
	})
	return order, nil
}

// sustainabilityScore averages per-item scores on a 0-100 scale:
// up to 40 points for recycled content, 10 per certification capped at
// 30, and up to 30 for staying under 2.0 kg CO2e per unit.
func (s *procurementService) sustainabilityScore(items []OrderItem) int {
	if len(items) == 0 {
		return 0
	}

	two := decimal.NewFromInt(2)
	total := decimal.Zero
	for _, item := range items {
		product, ok := s.catalog.Product(item.SKU)
		if !ok {
			continue
		}
		score := decimal.NewFromInt(int64(product.RecycledPct)).Div(decimal.NewFromInt(100)).Mul(decimal.NewFromInt(40))

		certPoints := len(product.Certifications) * 10
		if certPoints > 30 {
			certPoints = 30
		}
		score = score.Add(decimal.NewFromInt(int64(certPoints)))

		co2ePoints := two.Sub(product.CO2ePerUnit).Div(two).Mul(decimal.NewFromInt(30))
		if co2ePoints.IsNegative() {
			co2ePoints = decimal.Zero
		}
		score = score.Add(co2ePoints)

		total = total.Add(score)
	}

	avg := total.Div(decimal.NewFromInt(int64(len(items))))
	return int(avg.Round(0).IntPart())
}

func (s *procurementService) EmitQuote(ctx context.Context, order Order) (Quote, error) {
	if strings.TrimSpace(order.ID) == "" {
		return Quote{}, fmt.Errorf("%w: order id is required", ErrProcurementInvalidInput)
	}

	now := s.clock()
	subtotal := order.Subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)

	quote := Quote{
		ID:          quoteIDPrefix + s.newID(),
		OrderID:     order.ID,
		Subtotal:    subtotal,
		Tax:         tax,
		Total:       subtotal.Add(tax).Round(2),
		Summary:     orderSummary(order),
		GeneratedAt: now,
		ValidUntil:  now.AddDate(0, 0, quoteValidityDays),
		Highlights: QuoteHighlights{
			CO2eImpact:     co2eImpact(order.CO2eSavings),
			CostImpact:     costImpact(order.CostSavings),
			Certifications: uniqueCerts(order.Items),
			Score:          strconv.Itoa(order.SustainabilityScore) + "/100",
		},
	}

	s.logger(ctx, eventQuoteEmit, map[string]any{
		"quoteId": quote.ID,
		"orderId": order.ID,
		"total":   quote.Total.StringFixed(2),
	})
	return quote, nil
}

func co2eImpact(savings decimal.Decimal) string {
	if savings.IsNegative() {
		return savings.Abs().StringFixed(2) + " kg CO2e added"
	}
	return savings.StringFixed(2) + " kg CO2e saved"
}

func costImpact(savings decimal.Decimal) string {
	if savings.IsNegative() {
		return "$" + savings.Abs().StringFixed(2) + " additional"
	}
	return "$" + savings.StringFixed(2) + " saved"
}

func uniqueCerts(items []OrderItem) []string {
	seen := make(map[string]struct{})
	certs := make([]string, 0)
	for _, item := range items {
		for _, cert := range item.Certs {
			if _, dup := seen[cert]; dup {
				continue
			}
			seen[cert] = struct{}{}
			certs = append(certs, cert)
		}
	}
	return certs
}

// orderSummary builds a deterministic one-line digest of the order's
// sustainability outcome for the quote header.
func orderSummary(order Order) string {
	var b strings.Builder
	b.WriteString("Draft order ready. ")

	if order.CO2eSavings.IsPositive() {
		// Rough percentage against a 10 kg CO2e baseline order.
		pct := order.CO2eSavings.Div(decimal.NewFromInt(10)).Mul(decimal.NewFromInt(100)).StringFixed(0)
		b.WriteString("Sustainable alternatives cut ~" + pct + "% CO2e ")
	}

	if order.CostSavings.IsNegative() {
		b.WriteString("with $" + order.CostSavings.Abs().StringFixed(0) + " additional cost; ")
	} else {
		b.WriteString("with $" + order.CostSavings.StringFixed(0) + " savings; ")
	}

	b.WriteString("ETA " + strconv.Itoa(order.MaxLeadTimeDays) + " days. Quote ready to review.")
	return b.String()
}
