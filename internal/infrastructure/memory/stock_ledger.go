package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
)

// StockLedger is an in-memory inventory ledger. Each product has its own
// mutex so reserve/release on different products never contend; the
// check-and-decrement for one product is indivisible under its lock.
// Suitable for tests and single-node deployments.
type StockLedger struct {
	mu      sync.RWMutex // guards the maps, not the per-product serialization
	stock   map[uuid.UUID]int64
	perProd map[uuid.UUID]*sync.Mutex
}

// NewStockLedger creates an empty in-memory ledger
func NewStockLedger() *StockLedger {
	return &StockLedger{
		stock:   make(map[uuid.UUID]int64),
		perProd: make(map[uuid.UUID]*sync.Mutex),
	}
}

// SetStock seeds the counter for a product
func (l *StockLedger) SetStock(productID uuid.UUID, qty int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[productID] = qty
	if _, ok := l.perProd[productID]; !ok {
		l.perProd[productID] = &sync.Mutex{}
	}
}

func (l *StockLedger) productLock(productID uuid.UUID) (*sync.Mutex, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.stock[productID]; !ok {
		return nil, false
	}
	m, ok := l.perProd[productID]
	if !ok {
		m = &sync.Mutex{}
		l.perProd[productID] = m
	}
	return m, true
}

// Reserve atomically checks and decrements the product's stock
func (l *StockLedger) Reserve(_ context.Context, productID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return shared.ErrInvalidInput
	}
	lock, ok := l.productLock(productID)
	if !ok {
		return shared.ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	l.mu.RLock()
	current := l.stock[productID]
	l.mu.RUnlock()

	if current < qty {
		return shared.ErrInsufficientStock
	}

	l.mu.Lock()
	l.stock[productID] = current - qty
	l.mu.Unlock()
	return nil
}

// Release atomically returns qty units to the product's stock
func (l *StockLedger) Release(_ context.Context, productID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return shared.ErrInvalidInput
	}
	lock, ok := l.productLock(productID)
	if !ok {
		return shared.ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	l.mu.Lock()
	l.stock[productID] += qty
	l.mu.Unlock()
	return nil
}

// StockOf reports the current counter for a product
func (l *StockLedger) StockOf(_ context.Context, productID uuid.UUID) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	current, ok := l.stock[productID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return current, nil
}

// Ensure StockLedger implements inventory.Ledger
var _ inventory.Ledger = (*StockLedger)(nil)
