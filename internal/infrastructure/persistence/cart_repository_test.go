package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&cart.Cart{}, &cart.CartItem{})
	require.NoError(t, err)

	return db
}

func newAccountCart(t *testing.T, accountID string) *cart.Cart {
	t.Helper()
	c, err := cart.New(cart.AccountKey(accountID))
	require.NoError(t, err)
	return c
}

func mustMoney(t *testing.T, amount float64) valueobject.Money {
	t.Helper()
	return valueobject.NewMoneyUSDFromFloat(amount)
}

func TestGormCartRepository_SaveAndFind(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	t.Run("creates and reloads a cart with its items", func(t *testing.T) {
		c := newAccountCart(t, "acct-1")
		_, err := c.AddItem(uuid.New(), "Widget", mustMoney(t, 19.99), 2)
		require.NoError(t, err)
		_, err = c.AddItem(uuid.New(), "Gadget", mustMoney(t, 5.00), 1)
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, c))

		found, err := repo.Find(ctx, cart.AccountKey("acct-1"))
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)
		assert.Len(t, found.Items, 2)
		assert.True(t, found.TotalPrice.Equal(c.TotalPrice))
	})

	t.Run("returns not found for an owner without a cart", func(t *testing.T) {
		_, err := repo.Find(ctx, cart.AccountKey("acct-none"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("rejects an invalid key", func(t *testing.T) {
		_, err := repo.Find(ctx, cart.Key{})
		assert.Error(t, err)
	})
}

func TestGormCartRepository_SaveUpdates(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	t.Run("persists item quantity changes and removals", func(t *testing.T) {
		c := newAccountCart(t, "acct-2")
		item, err := c.AddItem(uuid.New(), "Widget", mustMoney(t, 10.00), 2)
		require.NoError(t, err)
		keptID := item.ID
		removed, err := c.AddItem(uuid.New(), "Gadget", mustMoney(t, 3.00), 1)
		require.NoError(t, err)
		removedID := removed.ID
		require.NoError(t, repo.Save(ctx, c))

		loaded, err := repo.Find(ctx, c.Key())
		require.NoError(t, err)
		require.NoError(t, loaded.SetItemQuantity(keptID, 5))
		require.NoError(t, loaded.RemoveItem(removedID))
		require.NoError(t, repo.Save(ctx, loaded))

		reloaded, err := repo.Find(ctx, c.Key())
		require.NoError(t, err)
		require.Len(t, reloaded.Items, 1)
		assert.Equal(t, keptID, reloaded.Items[0].ID)
		assert.Equal(t, int64(5), reloaded.Items[0].Quantity)
	})

	t.Run("persists promotion fields", func(t *testing.T) {
		c := newAccountCart(t, "acct-3")
		_, err := c.AddItem(uuid.New(), "Widget", mustMoney(t, 100.00), 1)
		require.NoError(t, err)

		promo, err := cart.NewPromotion("SAVE10", decimal.NewFromInt(10), time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, c.ApplyPromotion(promo))
		require.NoError(t, repo.Save(ctx, c))

		reloaded, err := repo.Find(ctx, c.Key())
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", reloaded.PromotionCode)
		assert.True(t, reloaded.DiscountPercent.Equal(decimal.NewFromInt(10)))
		assert.True(t, reloaded.TotalPrice.Equal(decimal.NewFromInt(90)))
	})
}

func TestGormCartRepository_OptimisticLocking(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	t.Run("rejects a save from a stale copy", func(t *testing.T) {
		c := newAccountCart(t, "acct-4")
		_, err := c.AddItem(uuid.New(), "Widget", mustMoney(t, 10.00), 1)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		first, err := repo.Find(ctx, c.Key())
		require.NoError(t, err)
		second, err := repo.Find(ctx, c.Key())
		require.NoError(t, err)

		_, err = first.AddItem(uuid.New(), "Gadget", mustMoney(t, 2.00), 1)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, first))

		_, err = second.AddItem(uuid.New(), "Gizmo", mustMoney(t, 4.00), 1)
		require.NoError(t, err)
		err = repo.Save(ctx, second)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestGormCartRepository_Delete(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewGormCartRepository(db)
	ctx := context.Background()

	t.Run("removes the cart and its items", func(t *testing.T) {
		c := newAccountCart(t, "acct-5")
		_, err := c.AddItem(uuid.New(), "Widget", mustMoney(t, 10.00), 1)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		require.NoError(t, repo.Delete(ctx, c.Key()))

		_, err = repo.Find(ctx, c.Key())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		var itemCount int64
		require.NoError(t, db.Model(&cart.CartItem{}).Where("cart_id = ?", c.ID).Count(&itemCount).Error)
		assert.Zero(t, itemCount)
	})

	t.Run("allows a fresh cart for the same owner afterwards", func(t *testing.T) {
		c := newAccountCart(t, "acct-6")
		require.NoError(t, repo.Save(ctx, c))
		require.NoError(t, repo.Delete(ctx, c.Key()))

		replacement := newAccountCart(t, "acct-6")
		require.NoError(t, repo.Save(ctx, replacement))

		found, err := repo.Find(ctx, cart.AccountKey("acct-6"))
		require.NoError(t, err)
		assert.Equal(t, replacement.ID, found.ID)
	})

	t.Run("is a no-op for a missing cart", func(t *testing.T) {
		assert.NoError(t, repo.Delete(ctx, cart.AccountKey("acct-missing")))
	})
}
