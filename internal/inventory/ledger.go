// Package inventory owns per-product stock counters and the derived
// low-stock and expired product sets.
package inventory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"retail-pos/internal/domain"

	"go.uber.org/zap"
)

// maxAdjustAttempts bounds the compare-and-swap retry loop in Adjust
const maxAdjustAttempts = 1024

// StockLevel is a point-in-time view of one ledger entry
type StockLevel struct {
	ProductID       string `json:"product_id"`
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	ReorderPoint    int    `json:"reorder_point"`
	ReorderQuantity int    `json:"reorder_quantity"`
	NeedsReorder    bool   `json:"needs_reorder"`
	Expired         bool   `json:"expired"`
}

type entry struct {
	product         domain.Product
	quantity        atomic.Int64
	reorderPoint    int64
	reorderQuantity int64
}

// Ledger is the single source of truth for stock quantities.
//
// Each product has its own atomic counter; there is no ledger-wide lock on
// the mutation path, so operations on unrelated products never serialize.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*entry

	lowStock sync.Map // product id -> struct{}
	expired  sync.Map // product id -> struct{}

	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock overrides the clock used for expiration checks
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates an empty ledger
func NewLedger(logger *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		entries: make(map[string]*entry),
		now:     time.Now,
		logger:  logger.Named("ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register adds a product with its initial stock and reorder settings.
func (l *Ledger) Register(product domain.Product, initialStock, reorderPoint, reorderQuantity int) error {
	if strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("%w: product id is required", domain.ErrInvalidParameter)
	}
	if initialStock < 0 {
		return fmt.Errorf("%w: initial stock cannot be negative", domain.ErrInvalidParameter)
	}
	if reorderPoint < 0 {
		return fmt.Errorf("%w: reorder point cannot be negative", domain.ErrInvalidParameter)
	}
	if reorderQuantity <= 0 {
		return fmt.Errorf("%w: reorder quantity must be positive", domain.ErrInvalidParameter)
	}

	e := &entry{
		product:         product,
		reorderPoint:    int64(reorderPoint),
		reorderQuantity: int64(reorderQuantity),
	}
	e.quantity.Store(int64(initialStock))

	l.mu.Lock()
	if _, exists := l.entries[product.ID]; exists {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrDuplicateProduct, product.ID)
	}
	l.entries[product.ID] = e
	l.mu.Unlock()

	l.refresh(e)

	l.logger.Info("Product registered",
		zap.String("product_id", product.ID),
		zap.Int("initial_stock", initialStock),
		zap.Int("reorder_point", reorderPoint),
	)
	return nil
}

// Adjust applies delta to the product's stock and returns the new quantity.
// A positive delta restocks, a negative delta debits. The update is a
// compare-and-swap on the product's counter, retried on contention; if the
// result would be negative nothing is written and ErrInsufficientStock is returned.
func (l *Ledger) Adjust(productID string, delta int) (int, error) {
	e, err := l.lookup(productID)
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < maxAdjustAttempts; attempt++ {
		current := e.quantity.Load()
		candidate := current + int64(delta)
		if candidate < 0 {
			return int(current), fmt.Errorf("%w: product %s has %d, requested %d",
				domain.ErrInsufficientStock, productID, current, -delta)
		}
		if e.quantity.CompareAndSwap(current, candidate) {
			l.refresh(e)
			return int(candidate), nil
		}
	}

	l.logger.Warn("Stock adjustment gave up under contention",
		zap.String("product_id", productID),
		zap.Int("delta", delta),
	)
	return 0, fmt.Errorf("%w: product %s", domain.ErrStockConflict, productID)
}

// Query returns the quantity on hand
func (l *Ledger) Query(productID string) (int, error) {
	e, err := l.lookup(productID)
	if err != nil {
		return 0, err
	}
	return int(e.quantity.Load()), nil
}

// NeedsReorder reports whether quantity <= reorder point
func (l *Ledger) NeedsReorder(productID string) (bool, error) {
	e, err := l.lookup(productID)
	if err != nil {
		return false, err
	}
	return e.quantity.Load() <= e.reorderPoint, nil
}

// ReorderQuantity returns the configured restock quantity
func (l *Ledger) ReorderQuantity(productID string) (int, error) {
	e, err := l.lookup(productID)
	if err != nil {
		return 0, err
	}
	return int(e.reorderQuantity), nil
}

// Product returns the catalog data the product was registered with
func (l *Ledger) Product(productID string) (domain.Product, error) {
	e, err := l.lookup(productID)
	if err != nil {
		return domain.Product{}, err
	}
	return e.product, nil
}

// LowStock returns the ids of products at or below their reorder point, sorted
func (l *Ledger) LowStock() []string {
	return sortedKeys(&l.lowStock)
}

// Expired returns the ids of products found expired at their last mutation, sorted
func (l *Ledger) Expired() []string {
	return sortedKeys(&l.expired)
}

// Level returns the current view of one product
func (l *Ledger) Level(productID string) (StockLevel, error) {
	e, err := l.lookup(productID)
	if err != nil {
		return StockLevel{}, err
	}
	return l.level(e), nil
}

// Levels returns a snapshot of every entry, sorted by product id. Quantities
// are read one product at a time; the snapshot is not atomic across products.
func (l *Ledger) Levels() []StockLevel {
	l.mu.RLock()
	levels := make([]StockLevel, 0, len(l.entries))
	for _, e := range l.entries {
		levels = append(levels, l.level(e))
	}
	l.mu.RUnlock()

	sort.Slice(levels, func(i, j int) bool { return levels[i].ProductID < levels[j].ProductID })
	return levels
}

func (l *Ledger) level(e *entry) StockLevel {
	q := e.quantity.Load()
	_, expired := l.expired.Load(e.product.ID)
	return StockLevel{
		ProductID:       e.product.ID,
		Name:            e.product.Name,
		Quantity:        int(q),
		ReorderPoint:    int(e.reorderPoint),
		ReorderQuantity: int(e.reorderQuantity),
		NeedsReorder:    q <= e.reorderPoint,
		Expired:         expired,
	}
}

func (l *Ledger) lookup(productID string) (*entry, error) {
	l.mu.RLock()
	e, ok := l.entries[productID]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProduct, productID)
	}
	return e, nil
}

// refresh recomputes derived status for one product from its current counter.
// Under concurrent writers the derived sets are advisory; the counter is authoritative.
func (l *Ledger) refresh(e *entry) {
	id := e.product.ID
	quantity := e.quantity.Load()

	if quantity <= e.reorderPoint {
		if _, loaded := l.lowStock.LoadOrStore(id, struct{}{}); !loaded {
			l.logger.Info("Product reached reorder point",
				zap.String("product_id", id),
				zap.Int64("quantity", quantity),
				zap.Int64("reorder_point", e.reorderPoint),
			)
		}
	} else {
		l.lowStock.Delete(id)
	}

	if e.product.IsExpired(l.now()) {
		l.expired.Store(id, struct{}{})
	} else {
		l.expired.Delete(id)
	}
}

func sortedKeys(m *sync.Map) []string {
	var ids []string
	m.Range(func(key, _ any) bool {
		ids = append(ids, key.(string))
		return true
	})
	sort.Strings(ids)
	return ids
}
