package catalog

import (
	"errors"
	"sync/atomic"

	"github.com/leaf-procure/api/internal/domain"
)

// ErrNotLoaded indicates the store has no catalog snapshot yet.
var ErrNotLoaded = errors.New("catalog: snapshot not loaded")

// Store serves the current catalog snapshot to concurrent readers and
// swaps in a replacement on reload. Readers always see a complete
// snapshot; a failed reload leaves the previous one in place.
type Store struct {
	productsPath  string
	inventoryPath string
	defaultOnHand int
	current       atomic.Pointer[Snapshot]
}

// NewStore loads the initial snapshot from the given feeds.
func NewStore(productsPath, inventoryPath string, defaultOnHand int) (*Store, error) {
	store := &Store{
		productsPath:  productsPath,
		inventoryPath: inventoryPath,
		defaultOnHand: defaultOnHand,
	}
	if err := store.Reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// Reload rebuilds the snapshot from the source feeds and publishes it.
func (s *Store) Reload() error {
	snap, err := LoadSnapshot(s.productsPath, s.inventoryPath, s.defaultOnHand)
	if err != nil {
		return err
	}
	s.current.Store(snap)
	return nil
}

// Snapshot returns the current catalog view, or nil before the first
// successful load.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Ready reports whether a snapshot has been published.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Product looks up a SKU in the current snapshot.
func (s *Store) Product(sku string) (domain.Product, bool) {
	snap := s.current.Load()
	if snap == nil {
		return domain.Product{}, false
	}
	return snap.Product(sku)
}

// Products lists every product in the current snapshot.
func (s *Store) Products() []domain.Product {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.Products()
}

// ProductsByCategory lists products in the given categories.
func (s *Store) ProductsByCategory(categories ...domain.ProductCategory) []domain.Product {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.ProductsByCategory(categories...)
}

// OnHand reports warehouse stock for a SKU.
func (s *Store) OnHand(sku string) int {
	snap := s.current.Load()
	if snap == nil {
		return 0
	}
	return snap.OnHand(sku)
}
