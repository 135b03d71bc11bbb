package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Ledger owns the per-product stock counters. It is the only component
// allowed to mutate Product.Stock; every mutation is serialized per product
// so that stock can never be observed negative.
type Ledger interface {
	// Reserve atomically checks stock >= qty and decrements it.
	// Returns shared.ErrInsufficientStock when the check fails and
	// shared.ErrNotFound when the product does not exist. The check and
	// decrement are indivisible with respect to concurrent Reserve/Release
	// calls on the same product.
	Reserve(ctx context.Context, productID uuid.UUID, qty int64) error

	// Release atomically returns qty units to the product's stock. Used on
	// cart-item removal, quantity decrease, and order cancellation.
	Release(ctx context.Context, productID uuid.UUID, qty int64) error

	// StockOf reports the current stock counter for a product.
	StockOf(ctx context.Context, productID uuid.UUID) (int64, error)
}
