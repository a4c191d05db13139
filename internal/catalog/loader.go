package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/leaf-procure/api/internal/domain"
)

// ErrInvalidData indicates a catalog source file that could not be
// parsed or that failed validation.
var ErrInvalidData = errors.New("catalog: invalid data")

type marketplaceFile struct {
	Products []productRecord `json:"products"`
}

type productRecord struct {
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Price          decimal.Decimal `json:"price"`
	Unit           string          `json:"unit"`
	RecycledPct    int             `json:"recycled_pct"`
	CO2ePerUnit    decimal.Decimal `json:"co2e_per_unit"`
	Certifications []string        `json:"certifications"`
	LeadTimeDays   int             `json:"lead_time_days"`
	MinOrderQty    int             `json:"min_order_qty"`
}

var validCategories = map[domain.ProductCategory]struct{}{
	domain.CategoryOfficeSupplies: {},
	domain.CategoryJanitorial:     {},
	domain.CategoryITHardware:     {},
	domain.CategoryITSupplies:     {},
}

// LoadProducts reads and validates the marketplace JSON feed.
func LoadProducts(path string) ([]domain.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read products file: %w", err)
	}
	var file marketplaceFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidData, path, err)
	}
	if len(file.Products) == 0 {
		return nil, fmt.Errorf("%w: %s contains no products", ErrInvalidData, path)
	}
	products := make([]domain.Product, 0, len(file.Products))
	seen := make(map[string]struct{}, len(file.Products))
	for i, rec := range file.Products {
		p, err := rec.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: product %d: %v", ErrInvalidData, i, err)
		}
		if _, dup := seen[p.SKU]; dup {
			return nil, fmt.Errorf("%w: product %d: duplicate sku %s", ErrInvalidData, i, p.SKU)
		}
		seen[p.SKU] = struct{}{}
		products = append(products, p)
	}
	return products, nil
}

func (rec productRecord) toDomain() (domain.Product, error) {
	sku := strings.TrimSpace(rec.SKU)
	if sku == "" {
		return domain.Product{}, errors.New("missing sku")
	}
	if strings.TrimSpace(rec.Name) == "" {
		return domain.Product{}, fmt.Errorf("sku %s: missing name", sku)
	}
	category := domain.ProductCategory(strings.TrimSpace(rec.Category))
	if _, ok := validCategories[category]; !ok {
		return domain.Product{}, fmt.Errorf("sku %s: unknown category %q", sku, rec.Category)
	}
	if !rec.Price.IsPositive() {
		return domain.Product{}, fmt.Errorf("sku %s: price must be positive, got %s", sku, rec.Price)
	}
	if rec.RecycledPct < 0 || rec.RecycledPct > 100 {
		return domain.Product{}, fmt.Errorf("sku %s: recycled_pct out of range", sku)
	}
	if rec.CO2ePerUnit.IsNegative() {
		return domain.Product{}, fmt.Errorf("sku %s: negative co2e_per_unit", sku)
	}
	if rec.LeadTimeDays <= 0 {
		return domain.Product{}, fmt.Errorf("sku %s: lead_time_days must be positive, got %d", sku, rec.LeadTimeDays)
	}
	// Bulk pricing needs a threshold even when the feed omits one.
	minQty := rec.MinOrderQty
	if minQty <= 0 {
		minQty = 50
	}
	return domain.Product{
		SKU:            sku,
		Name:           strings.TrimSpace(rec.Name),
		Category:       category,
		Price:          rec.Price,
		Unit:           strings.TrimSpace(rec.Unit),
		RecycledPct:    rec.RecycledPct,
		CO2ePerUnit:    rec.CO2ePerUnit,
		Certifications: rec.Certifications,
		LeadTimeDays:   rec.LeadTimeDays,
		MinOrderQty:    minQty,
	}, nil
}

// LoadInventory reads the warehouse CSV feed. The file must start with a
// header row containing at least sku and on_hand columns; a warehouse
// column is optional. Rows with malformed quantities are rejected.
func LoadInventory(path string) ([]domain.InventoryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open inventory file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: missing header", ErrInvalidData, path)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	skuCol, ok := cols["sku"]
	if !ok {
		return nil, fmt.Errorf("%w: %s: header missing sku column", ErrInvalidData, path)
	}
	onHandCol, ok := cols["on_hand"]
	if !ok {
		return nil, fmt.Errorf("%w: %s: header missing on_hand column", ErrInvalidData, path)
	}
	warehouseCol, hasWarehouse := cols["warehouse"]

	var records []domain.InventoryRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrInvalidData, path, line, err)
		}
		sku := strings.TrimSpace(row[skuCol])
		if sku == "" {
			return nil, fmt.Errorf("%w: %s line %d: empty sku", ErrInvalidData, path, line)
		}
		onHand, err := strconv.Atoi(strings.TrimSpace(row[onHandCol]))
		if err != nil || onHand < 0 {
			return nil, fmt.Errorf("%w: %s line %d: bad on_hand %q", ErrInvalidData, path, line, row[onHandCol])
		}
		rec := domain.InventoryRecord{SKU: sku, OnHand: onHand}
		if hasWarehouse && warehouseCol < len(row) {
			rec.Warehouse = strings.TrimSpace(row[warehouseCol])
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadSnapshot builds a catalog snapshot from the marketplace JSON and
// inventory CSV feeds. Either failure aborts the whole load; a snapshot
// is never built from half of its sources.
func LoadSnapshot(productsPath, inventoryPath string, defaultOnHand int) (*Snapshot, error) {
	products, err := LoadProducts(productsPath)
	if err != nil {
		return nil, err
	}
	inventory, err := LoadInventory(inventoryPath)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(products, inventory, defaultOnHand), nil
}
