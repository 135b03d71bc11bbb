package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormStockLedger implements inventory.Ledger on the products table. The
// check-and-decrement runs as a single guarded UPDATE so the database's
// row lock serializes concurrent reservations per product; no transaction
// or application lock is needed.
type GormStockLedger struct {
	db *gorm.DB
}

// NewGormStockLedger creates a new GormStockLedger
func NewGormStockLedger(db *gorm.DB) *GormStockLedger {
	return &GormStockLedger{db: db}
}

// Reserve atomically checks stock >= qty and decrements it
func (l *GormStockLedger) Reserve(ctx context.Context, productID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return shared.ErrInvalidInput
	}

	result := l.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the product is missing or the guard failed; distinguish
		// so callers can surface the right error.
		exists, err := l.productExists(ctx, productID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		return shared.ErrInsufficientStock
	}
	return nil
}

// Release atomically returns qty units to the product's stock
func (l *GormStockLedger) Release(ctx context.Context, productID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return shared.ErrInvalidInput
	}

	result := l.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// StockOf reports the current stock counter for a product
func (l *GormStockLedger) StockOf(ctx context.Context, productID uuid.UUID) (int64, error) {
	var stock int64
	err := l.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Select("stock").
		Where("id = ?", productID).
		Take(&stock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return stock, nil
}

func (l *GormStockLedger) productExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	if err := l.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("id = ?", productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormStockLedger implements inventory.Ledger
var _ inventory.Ledger = (*GormStockLedger)(nil)
