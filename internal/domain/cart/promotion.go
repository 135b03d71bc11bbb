package cart

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Promotion is a percentage discount code. Read-only from the cart's
// perspective; codes are unique while active.
type Promotion struct {
	shared.BaseEntity
	Code            string          `gorm:"type:varchar(50);not null;index"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	ValidUntil      time.Time       `gorm:"not null"`
	Active          bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Promotion) TableName() string {
	return "promotions"
}

// NewPromotion creates an active promotion code
func NewPromotion(code string, discountPercent decimal.Decimal, validUntil time.Time) (*Promotion, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Promotion code cannot be empty")
	}
	if discountPercent.LessThanOrEqual(decimal.Zero) || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100")
	}
	return &Promotion{
		BaseEntity:      shared.NewBaseEntity(),
		Code:            code,
		DiscountPercent: discountPercent,
		ValidUntil:      validUntil,
		Active:          true,
	}, nil
}

// IsRedeemable reports whether the promotion can be applied at the given time
func (p *Promotion) IsRedeemable(now time.Time) bool {
	return p.Active && p.ValidUntil.After(now)
}
