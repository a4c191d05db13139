package catalog

import (
	"sort"

	"github.com/leaf-procure/api/internal/domain"
)

// Snapshot is an immutable view of the marketplace catalog joined with
// warehouse inventory. Lookups never mutate the snapshot; reloads build
// a fresh one and swap it in atomically.
type Snapshot struct {
	products      map[string]domain.Product
	inventory     map[string]domain.InventoryRecord
	ordered       []domain.Product
	defaultOnHand int
}

// NewSnapshot indexes the given products and inventory records. Product
// SKUs are unique by the time a snapshot is built; later inventory rows
// for the same SKU win.
func NewSnapshot(products []domain.Product, inventory []domain.InventoryRecord, defaultOnHand int) *Snapshot {
	snap := &Snapshot{
		products:      make(map[string]domain.Product, len(products)),
		inventory:     make(map[string]domain.InventoryRecord, len(inventory)),
		defaultOnHand: defaultOnHand,
	}
	for _, p := range products {
		snap.products[p.SKU] = p
	}
	for _, rec := range inventory {
		snap.inventory[rec.SKU] = rec
	}
	snap.ordered = make([]domain.Product, 0, len(snap.products))
	for _, p := range snap.products {
		snap.ordered = append(snap.ordered, p)
	}
	sort.Slice(snap.ordered, func(i, j int) bool { return snap.ordered[i].SKU < snap.ordered[j].SKU })
	return snap
}

// Product returns the catalog entry for a SKU.
func (s *Snapshot) Product(sku string) (domain.Product, bool) {
	p, ok := s.products[sku]
	return p, ok
}

// Products returns every catalog entry ordered by SKU.
func (s *Snapshot) Products() []domain.Product {
	out := make([]domain.Product, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// ProductsByCategory returns catalog entries in any of the given
// categories, ordered by SKU.
func (s *Snapshot) ProductsByCategory(categories ...domain.ProductCategory) []domain.Product {
	if len(categories) == 0 {
		return nil
	}
	want := make(map[domain.ProductCategory]struct{}, len(categories))
	for _, c := range categories {
		want[c] = struct{}{}
	}
	var out []domain.Product
	for _, p := range s.ordered {
		if _, ok := want[p.Category]; ok {
			out = append(out, p)
		}
	}
	return out
}

// OnHand reports warehouse stock for a SKU. SKUs missing from the
// inventory feed fall back to the configured default.
func (s *Snapshot) OnHand(sku string) int {
	if rec, ok := s.inventory[sku]; ok {
		return rec.OnHand
	}
	return s.defaultOnHand
}

// Len reports the number of catalog products in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.products)
}
