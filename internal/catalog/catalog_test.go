package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leaf-procure/api/internal/domain"
)

func TestLoadSnapshotFromTestdata(t *testing.T) {
	snap, err := LoadSnapshot(filepath.Join("testdata", "marketplace.json"), filepath.Join("testdata", "inventory.csv"), 0)
	if err != nil {
		t.Fatalf("LoadSnapshot returned error: %v", err)
	}
	if got := snap.Len(); got != 4 {
		t.Fatalf("expected 4 products, got %d", got)
	}
	paper, ok := snap.Product("PAPER-STD-80")
	if !ok {
		t.Fatalf("expected PAPER-STD-80 in snapshot")
	}
	if paper.Price.StringFixed(2) != "4.50" {
		t.Fatalf("unexpected price %s", paper.Price.StringFixed(2))
	}
	if paper.Category != domain.CategoryOfficeSupplies {
		t.Fatalf("unexpected category %s", paper.Category)
	}
	if got := snap.OnHand("PAPER-STD-80"); got != 1200 {
		t.Fatalf("expected on hand 1200, got %d", got)
	}
}

func TestSnapshotOnHandFallsBackToDefault(t *testing.T) {
	snap, err := LoadSnapshot(filepath.Join("testdata", "marketplace.json"), filepath.Join("testdata", "inventory.csv"), 75)
	if err != nil {
		t.Fatalf("LoadSnapshot returned error: %v", err)
	}
	// CABLE-CAT6-3M has no inventory row.
	if got := snap.OnHand("CABLE-CAT6-3M"); got != 75 {
		t.Fatalf("expected default on hand 75, got %d", got)
	}
}

func TestSnapshotProductsByCategory(t *testing.T) {
	snap, err := LoadSnapshot(filepath.Join("testdata", "marketplace.json"), filepath.Join("testdata", "inventory.csv"), 0)
	if err != nil {
		t.Fatalf("LoadSnapshot returned error: %v", err)
	}
	office := snap.ProductsByCategory(domain.CategoryOfficeSupplies)
	if len(office) != 2 {
		t.Fatalf("expected 2 office supplies, got %d", len(office))
	}
	if office[0].SKU != "PAPER-RCY-80" || office[1].SKU != "PAPER-STD-80" {
		t.Fatalf("expected SKU ordering, got %s, %s", office[0].SKU, office[1].SKU)
	}
	if got := snap.ProductsByCategory(); got != nil {
		t.Fatalf("expected nil for empty category filter, got %v", got)
	}
}

func TestLoadProductsRejectsUnknownCategory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marketplace.json")
	payload := `{"products":[{"sku":"X-1","name":"thing","category":"furniture","price":"1.00","unit":"each"}]}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadProducts(path); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
}

func TestLoadProductsRejectsNonPositiveFields(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{
			name:    "zero price",
			payload: `{"products":[{"sku":"X-1","name":"thing","category":"office_supplies","price":"0","unit":"each","lead_time_days":3}]}`,
		},
		{
			name:    "zero lead time",
			payload: `{"products":[{"sku":"X-1","name":"thing","category":"office_supplies","price":"1.00","unit":"each","lead_time_days":0}]}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "marketplace.json")
			if err := os.WriteFile(path, []byte(tc.payload), 0o600); err != nil {
				t.Fatalf("write fixture: %v", err)
			}
			if _, err := LoadProducts(path); !errors.Is(err, ErrInvalidData) {
				t.Fatalf("expected ErrInvalidData, got %v", err)
			}
		})
	}
}

func TestLoadProductsRejectsDuplicateSKU(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketplace.json")
	payload := `{"products":[
		{"sku":"DUP-1","name":"first","category":"office_supplies","price":"1.00","unit":"each","lead_time_days":3},
		{"sku":"DUP-1","name":"second","category":"office_supplies","price":"2.00","unit":"each","lead_time_days":3}
	]}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadProducts(path); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
}

func TestLoadInventoryRejectsBadQuantity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inventory.csv")
	payload := "sku,on_hand\nPAPER-STD-80,many\n"
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadInventory(path); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
}

func TestStoreReloadKeepsPreviousSnapshotOnFailure(t *testing.T) {
	dir := t.TempDir()
	productsPath := filepath.Join(dir, "marketplace.json")
	inventoryPath := filepath.Join(dir, "inventory.csv")
	products := `{"products":[{"sku":"PEN-STD-BLK","name":"Ballpoint pens black","category":"office_supplies","price":"7.25","unit":"box","lead_time_days":2,"min_order_qty":5}]}`
	if err := os.WriteFile(productsPath, []byte(products), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(inventoryPath, []byte("sku,on_hand\nPEN-STD-BLK,40\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store, err := NewStore(productsPath, inventoryPath, 0)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	if !store.Ready() {
		t.Fatalf("expected store to be ready after initial load")
	}
	before := store.Snapshot()

	if err := os.WriteFile(productsPath, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("corrupt fixture: %v", err)
	}
	if err := store.Reload(); err == nil {
		t.Fatalf("expected reload failure")
	}
	if store.Snapshot() != before {
		t.Fatalf("expected previous snapshot to keep serving after failed reload")
	}
	if _, ok := store.Product("PEN-STD-BLK"); !ok {
		t.Fatalf("expected PEN-STD-BLK to remain available")
	}
	if got := store.OnHand("PEN-STD-BLK"); got != 40 {
		t.Fatalf("expected on hand 40, got %d", got)
	}
}
