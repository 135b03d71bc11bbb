package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPromotionRepository implements cart.PromotionRepository using GORM
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewGormPromotionRepository creates a new GormPromotionRepository
func NewGormPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// FindActiveByCode looks up an active promotion by its code. Expiry is
// checked by the domain, not here, so callers get a precise error for
// codes that exist but have lapsed.
func (r *GormPromotionRepository) FindActiveByCode(ctx context.Context, code string) (*cart.Promotion, error) {
	var p cart.Promotion
	if err := r.db.WithContext(ctx).
		Where("code = ? AND active = ?", strings.ToUpper(strings.TrimSpace(code)), true).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Ensure GormPromotionRepository implements cart.PromotionRepository
var _ cart.PromotionRepository = (*GormPromotionRepository)(nil)
