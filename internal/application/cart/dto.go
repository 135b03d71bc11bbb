package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
)

// CartItemView represents one cart line in API responses
type CartItemView struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// CartView represents a cart in API responses
type CartView struct {
	ID              uuid.UUID       `json:"id"`
	OwnerKind       string          `json:"owner_kind"`
	OwnerID         string          `json:"owner_id"`
	Items           []CartItemView  `json:"items"`
	TotalQuantity   int64           `json:"total_quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	PromotionCode   string          `json:"promotion_code,omitempty"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

// DroppedLine reports a session cart line that could not be merged into the
// account cart because its product is no longer available.
type DroppedLine struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int64     `json:"quantity"`
	Reason      string    `json:"reason"`
}

// ToCartView converts a cart aggregate to its response representation
func ToCartView(c *cart.Cart) CartView {
	items := make([]CartItemView, 0, len(c.Items))
	for idx := range c.Items {
		item := &c.Items[idx]
		items = append(items, CartItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal(),
		})
	}

	return CartView{
		ID:              c.ID,
		OwnerKind:       string(c.OwnerKind),
		OwnerID:         c.OwnerID,
		Items:           items,
		TotalQuantity:   c.TotalQuantity(),
		DiscountPercent: c.DiscountPercent,
		PromotionCode:   c.PromotionCode,
		TotalPrice:      c.TotalPrice,
	}
}
