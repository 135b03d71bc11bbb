package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/application/keylock"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// CartService handles cart business operations. Every mutation takes the
// per-cart lock first, so a cart is mutated by one request at a time even
// though the storage backends have no cross-key transactions.
//
// Stock movements bracket persistence: reservations are taken before the
// cart is saved and rolled back if the save fails, while releases run only
// after a successful save. A failed request therefore never leaks reserved
// stock, and a successful one never releases more than was held.
type CartService struct {
	carts       cart.Repository
	productRepo catalog.ProductRepository
	ledger      inventory.Ledger
	promotions  *PromotionEngine
	locks       *keylock.KeyedMutex
	logger      *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(
	carts cart.Repository,
	productRepo catalog.ProductRepository,
	ledger inventory.Ledger,
	promotions *PromotionEngine,
	locks *keylock.KeyedMutex,
	logger *zap.Logger,
) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		carts:       carts,
		productRepo: productRepo,
		ledger:      ledger,
		promotions:  promotions,
		locks:       locks,
		logger:      logger,
	}
}

// GetCart returns the cart for the key. A shopper without a cart sees an
// empty view; nothing is persisted until the first mutation.
func (s *CartService) GetCart(ctx context.Context, key cart.Key) (CartView, error) {
	c, err := s.carts.Find(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			empty, newErr := cart.New(key)
			if newErr != nil {
				return CartView{}, newErr
			}
			return ToCartView(empty), nil
		}
		return CartView{}, err
	}
	return ToCartView(c), nil
}

// AddItem reserves qty units of the product and merges them into the cart.
// On insufficient stock the cart is left unchanged.
func (s *CartService) AddItem(ctx context.Context, key cart.Key, productID uuid.UUID, qty int64) (CartView, error) {
	if qty <= 0 {
		return CartView{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive integer")
	}

	unlock := s.locks.Lock(key.String())
	defer unlock()

	product, err := s.productRepo.FindByIDActive(ctx, productID)
	if err != nil {
		return CartView{}, err
	}

	if err := s.ledger.Reserve(ctx, productID, qty); err != nil {
		return CartView{}, err
	}

	c, err := s.findOrCreate(ctx, key)
	if err != nil {
		s.releaseQuietly(ctx, productID, qty, "add_item_load_failed")
		return CartView{}, err
	}

	if _, err := c.AddItem(product.ID, product.Name, valueobject.NewMoneyUSD(product.Price), qty); err != nil {
		s.releaseQuietly(ctx, productID, qty, "add_item_rejected")
		return CartView{}, err
	}

	if err := s.carts.Save(ctx, c); err != nil {
		s.releaseQuietly(ctx, productID, qty, "add_item_save_failed")
		return CartView{}, err
	}

	s.logger.Info("cart item added",
		zap.String("cart_key", key.String()),
		zap.String("product_id", productID.String()),
		zap.Int64("quantity", qty))
	return ToCartView(c), nil
}

// UpdateItemQuantity sets an item's quantity to newQty. Increases reserve
// the delta before the cart is saved; decreases release it afterwards.
// Setting the current quantity is a no-op.
func (s *CartService) UpdateItemQuantity(ctx context.Context, key cart.Key, itemID uuid.UUID, newQty int64) (CartView, error) {
	if newQty <= 0 {
		return CartView{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive integer")
	}

	unlock := s.locks.Lock(key.String())
	defer unlock()

	c, err := s.carts.Find(ctx, key)
	if err != nil {
		return CartView{}, err
	}
	item := c.Item(itemID)
	if item == nil {
		return CartView{}, shared.ErrNotFound
	}

	delta := newQty - item.Quantity
	if delta == 0 {
		return ToCartView(c), nil
	}

	productID := item.ProductID
	if delta > 0 {
		if err := s.ledger.Reserve(ctx, productID, delta); err != nil {
			return CartView{}, err
		}
	}

	if err := c.SetItemQuantity(itemID, newQty); err != nil {
		if delta > 0 {
			s.releaseQuietly(ctx, productID, delta, "update_quantity_rejected")
		}
		return CartView{}, err
	}

	if err := s.carts.Save(ctx, c); err != nil {
		if delta > 0 {
			s.releaseQuietly(ctx, productID, delta, "update_quantity_save_failed")
		}
		return CartView{}, err
	}

	if delta < 0 {
		s.releaseQuietly(ctx, productID, -delta, "update_quantity_decrease")
	}

	s.logger.Info("cart item quantity updated",
		zap.String("cart_key", key.String()),
		zap.String("item_id", itemID.String()),
		zap.Int64("quantity", newQty))
	return ToCartView(c), nil
}

// RemoveItem deletes an item and returns its full quantity to stock
func (s *CartService) RemoveItem(ctx context.Context, key cart.Key, itemID uuid.UUID) (CartView, error) {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	c, err := s.carts.Find(ctx, key)
	if err != nil {
		return CartView{}, err
	}
	item := c.Item(itemID)
	if item == nil {
		return CartView{}, shared.ErrNotFound
	}
	productID := item.ProductID
	qty := item.Quantity

	if err := c.RemoveItem(itemID); err != nil {
		return CartView{}, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return CartView{}, err
	}

	s.releaseQuietly(ctx, productID, qty, "remove_item")

	s.logger.Info("cart item removed",
		zap.String("cart_key", key.String()),
		zap.String("item_id", itemID.String()))
	return ToCartView(c), nil
}

// ClearCart empties the cart, dropping any applied promotion, and returns
// every held quantity to stock. Clearing a missing cart is a no-op.
func (s *CartService) ClearCart(ctx context.Context, key cart.Key) (CartView, error) {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	c, err := s.carts.Find(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return s.GetCart(ctx, key)
		}
		return CartView{}, err
	}

	held := make([]cart.CartItem, len(c.Items))
	copy(held, c.Items)

	c.Clear()
	if err := s.carts.Save(ctx, c); err != nil {
		return CartView{}, err
	}

	for idx := range held {
		s.releaseQuietly(ctx, held[idx].ProductID, held[idx].Quantity, "clear_cart")
	}

	s.logger.Info("cart cleared",
		zap.String("cart_key", key.String()),
		zap.Int("released_lines", len(held)))
	return ToCartView(c), nil
}

// ApplyPromotion applies a promotion code to the cart
func (s *CartService) ApplyPromotion(ctx context.Context, key cart.Key, code string) (CartView, error) {
	unlock := s.locks.Lock(key.String())
	defer unlock()

	c, err := s.findOrCreate(ctx, key)
	if err != nil {
		return CartView{}, err
	}
	if err := s.promotions.Apply(ctx, c, code); err != nil {
		return CartView{}, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return CartView{}, err
	}

	s.logger.Info("promotion applied",
		zap.String("cart_key", key.String()),
		zap.String("promotion_code", c.PromotionCode))
	return ToCartView(c), nil
}

// MergeOnLogin folds the anonymous session cart into the shopper's account
// cart. Each session line is re-validated against the catalog: lines whose
// product has disappeared or been deactivated are dropped, their held stock
// released, and the drop reported to the caller. Quantities for products
// present in both carts are combined. The session cart is discarded.
//
// Both cart locks are taken in a fixed order, account before session, so
// concurrent merges for the same shopper cannot deadlock.
func (s *CartService) MergeOnLogin(ctx context.Context, sessionID, accountID string) (CartView, []DroppedLine, error) {
	accountKey := cart.AccountKey(accountID)
	sessionKey := cart.SessionKey(sessionID)
	if err := accountKey.Validate(); err != nil {
		return CartView{}, nil, err
	}
	if err := sessionKey.Validate(); err != nil {
		return CartView{}, nil, err
	}

	unlockAccount := s.locks.Lock(accountKey.String())
	defer unlockAccount()
	unlockSession := s.locks.Lock(sessionKey.String())
	defer unlockSession()

	sessionCart, err := s.carts.Find(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			view, getErr := s.GetCart(ctx, accountKey)
			return view, nil, getErr
		}
		return CartView{}, nil, err
	}

	if sessionCart.IsEmpty() {
		if err := s.carts.Delete(ctx, sessionKey); err != nil {
			s.logger.Error("failed to discard empty session cart on login",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
		view, getErr := s.GetCart(ctx, accountKey)
		return view, nil, getErr
	}

	accountCart, err := s.findOrCreate(ctx, accountKey)
	if err != nil {
		return CartView{}, nil, err
	}

	var dropped []DroppedLine
	merged := 0
	for idx := range sessionCart.Items {
		line := &sessionCart.Items[idx]
		_, lookupErr := s.productRepo.FindByIDActive(ctx, line.ProductID)
		if lookupErr != nil {
			if errors.Is(lookupErr, shared.ErrNotFound) {
				dropped = append(dropped, DroppedLine{
					ProductID:   line.ProductID,
					ProductName: line.ProductName,
					Quantity:    line.Quantity,
					Reason:      "PRODUCT_UNAVAILABLE",
				})
				continue
			}
			return CartView{}, nil, lookupErr
		}
		// Session price snapshot carries over; an existing account line
		// keeps its own snapshot and only gains quantity.
		if _, addErr := accountCart.AddItem(line.ProductID, line.ProductName, valueobject.NewMoneyUSD(line.UnitPrice), line.Quantity); addErr != nil {
			return CartView{}, nil, addErr
		}
		merged++
	}

	// A save only happens when a line was folded in: the durable store's
	// version guard rejects writes whose version did not advance.
	if merged > 0 {
		if err := s.carts.Save(ctx, accountCart); err != nil {
			return CartView{}, nil, err
		}
	}

	// Dropped lines still hold reservations from when they were added to
	// the session cart; return them now that the merge is committed.
	for _, d := range dropped {
		s.releaseQuietly(ctx, d.ProductID, d.Quantity, "merge_dropped_line")
	}

	if err := s.carts.Delete(ctx, sessionKey); err != nil {
		s.logger.Error("failed to discard session cart after merge",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	s.logger.Info("session cart merged",
		zap.String("account_id", accountID),
		zap.String("session_id", sessionID),
		zap.Int("dropped_lines", len(dropped)))
	return ToCartView(accountCart), dropped, nil
}

func (s *CartService) findOrCreate(ctx context.Context, key cart.Key) (*cart.Cart, error) {
	c, err := s.carts.Find(ctx, key)
	if err == nil {
		return c, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return cart.New(key)
	}
	return nil, err
}

// releaseQuietly returns qty units to stock. Failures are logged, not
// returned; the surrounding operation has already been committed.
func (s *CartService) releaseQuietly(ctx context.Context, productID uuid.UUID, qty int64, reason string) {
	if err := s.ledger.Release(ctx, productID, qty); err != nil {
		s.logger.Error("stock release failed",
			zap.String("product_id", productID.String()),
			zap.Int64("quantity", qty),
			zap.String("reason", reason),
			zap.Error(err))
	}
}
