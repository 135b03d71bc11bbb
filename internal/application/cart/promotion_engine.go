package cart

import (
	"context"
	"errors"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// PromotionEngine resolves promotion codes and applies them to carts.
// An unknown, inactive, or lapsed code surfaces uniformly as
// shared.ErrInvalidPromotion so callers cannot probe which codes exist.
type PromotionEngine struct {
	promotionRepo cart.PromotionRepository
}

// NewPromotionEngine creates a new PromotionEngine
func NewPromotionEngine(promotionRepo cart.PromotionRepository) *PromotionEngine {
	return &PromotionEngine{promotionRepo: promotionRepo}
}

// Apply looks up the code and applies its discount to the cart
func (e *PromotionEngine) Apply(ctx context.Context, c *cart.Cart, code string) error {
	promo, err := e.promotionRepo.FindActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrInvalidPromotion
		}
		return err
	}
	return c.ApplyPromotion(promo)
}
