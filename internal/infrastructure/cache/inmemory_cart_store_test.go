package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionCart(t *testing.T, sessionID string) *cart.Cart {
	t.Helper()

	c, err := cart.New(cart.SessionKey(sessionID))
	require.NoError(t, err)

	price := valueobject.NewMoneyUSDFromFloat(9.99)
	_, err = c.AddItem(uuid.New(), "Widget", price, 2)
	require.NoError(t, err)

	return c
}

func TestInMemoryCartStore_SaveAndFind(t *testing.T) {
	store := NewInMemoryCartStore(time.Hour)
	defer store.Close()

	ctx := context.Background()

	t.Run("round-trips a session cart", func(t *testing.T) {
		c := newSessionCart(t, "sess-1")
		require.NoError(t, store.Save(ctx, c))

		found, err := store.Find(ctx, cart.SessionKey("sess-1"))
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)
		require.Len(t, found.Items, 1)
		assert.Equal(t, int64(2), found.Items[0].Quantity)
		assert.True(t, found.TotalPrice.Equal(c.TotalPrice))
	})

	t.Run("returns not found for an unknown session", func(t *testing.T) {
		_, err := store.Find(ctx, cart.SessionKey("sess-unknown"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("stores a snapshot, not the live aggregate", func(t *testing.T) {
		c := newSessionCart(t, "sess-2")
		require.NoError(t, store.Save(ctx, c))

		// Mutating the caller's copy must not leak into the store
		c.Clear()

		found, err := store.Find(ctx, cart.SessionKey("sess-2"))
		require.NoError(t, err)
		assert.Len(t, found.Items, 1)
	})

	t.Run("rejects an invalid key", func(t *testing.T) {
		_, err := store.Find(ctx, cart.Key{})
		assert.Error(t, err)
	})
}

func TestInMemoryCartStore_TTL(t *testing.T) {
	ctx := context.Background()

	t.Run("expired carts read as missing", func(t *testing.T) {
		store := NewInMemoryCartStore(10 * time.Millisecond)
		defer store.Close()

		c := newSessionCart(t, "sess-ttl")
		require.NoError(t, store.Save(ctx, c))

		time.Sleep(20 * time.Millisecond)

		_, err := store.Find(ctx, cart.SessionKey("sess-ttl"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("save resets the TTL", func(t *testing.T) {
		store := NewInMemoryCartStore(50 * time.Millisecond)
		defer store.Close()

		c := newSessionCart(t, "sess-refresh")
		require.NoError(t, store.Save(ctx, c))

		time.Sleep(30 * time.Millisecond)
		require.NoError(t, store.Save(ctx, c))
		time.Sleep(30 * time.Millisecond)

		_, err := store.Find(ctx, cart.SessionKey("sess-refresh"))
		assert.NoError(t, err)
	})
}

func TestInMemoryCartStore_Delete(t *testing.T) {
	store := NewInMemoryCartStore(time.Hour)
	defer store.Close()

	ctx := context.Background()

	t.Run("removes the cart", func(t *testing.T) {
		c := newSessionCart(t, "sess-del")
		require.NoError(t, store.Save(ctx, c))

		require.NoError(t, store.Delete(ctx, cart.SessionKey("sess-del")))

		_, err := store.Find(ctx, cart.SessionKey("sess-del"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Zero(t, store.Size())
	})

	t.Run("is a no-op for a missing cart", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, cart.SessionKey("sess-never")))
	})
}

func TestInMemoryCartStore_Close(t *testing.T) {
	store := NewInMemoryCartStore(time.Hour)

	require.NoError(t, store.Close())
	// Safe to call multiple times
	require.NoError(t, store.Close())
}
