package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCartRepository stores durable account carts. Session carts never reach
// this repository; the store mux routes them to the Redis-backed store.
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// Find loads the active cart for an owner with all of its items
func (r *GormCartRepository) Find(ctx context.Context, key cart.Key) (*cart.Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var c cart.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("owner_kind = ? AND owner_id = ? AND active = ?", key.Kind, key.ID, true).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Save persists the cart and its items in one transaction. Updates are
// guarded by the aggregate version: a stale write surfaces as
// shared.ErrConcurrencyConflict instead of clobbering a concurrent change.
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored cart.Cart
		err := tx.Select("version").Where("id = ?", c.ID).Take(&stored).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(c).Error
		}
		if err != nil {
			return err
		}

		// Domain methods bump the in-memory version on every mutation, so
		// the stored row must still be behind the aggregate we hold.
		if stored.Version >= c.Version {
			return shared.ErrConcurrencyConflict
		}

		res := tx.Model(&cart.Cart{}).
			Where("id = ? AND version = ?", c.ID, stored.Version).
			Updates(map[string]interface{}{
				"discount_percent": c.DiscountPercent,
				"promotion_code":   c.PromotionCode,
				"total_price":      c.TotalPrice,
				"active":           c.Active,
				"version":          c.Version,
				"updated_at":       time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.syncItems(tx, c)
	})
}

// syncItems reconciles the cart_items rows with the aggregate's item slice
func (r *GormCartRepository) syncItems(tx *gorm.DB, c *cart.Cart) error {
	kept := make([]uuid.UUID, 0, len(c.Items))
	for idx := range c.Items {
		c.Items[idx].CartID = c.ID
		kept = append(kept, c.Items[idx].ID)
	}

	removed := tx.Where("cart_id = ?", c.ID)
	if len(kept) > 0 {
		removed = removed.Where("id NOT IN ?", kept)
	}
	if err := removed.Delete(&cart.CartItem{}).Error; err != nil {
		return err
	}

	if len(c.Items) == 0 {
		return nil
	}
	return tx.Save(&c.Items).Error
}

// Delete removes the owner's cart and its items. Durable carts are hard
// deleted so a fresh cart for the same account can reuse the owner index.
func (r *GormCartRepository) Delete(ctx context.Context, key cart.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteCartRows(tx, key)
	})
}

// deleteCartRows removes a cart and its items inside the caller's
// transaction. Checkout uses it to drop the cart in the same commit as the
// new order. A missing cart is not an error.
func deleteCartRows(tx *gorm.DB, key cart.Key) error {
	var c cart.Cart
	err := tx.Select("id").
		Where("owner_kind = ? AND owner_id = ?", key.Kind, key.ID).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := tx.Where("cart_id = ?", c.ID).Delete(&cart.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&cart.Cart{}, "id = ?", c.ID).Error
}

// Ensure GormCartRepository implements cart.Repository
var _ cart.Repository = (*GormCartRepository)(nil)
