package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// CartItem represents a single product line inside a cart. Unit price is
// snapshotted when the line is created so cart totals stay stable against
// catalog price edits until checkout re-snapshots them.
type CartItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CartID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"cart_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(200);not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName returns the table name for GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// LineTotal returns unit price times quantity
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Cart is the aggregate root for a shopper's cart. The same aggregate backs
// both ephemeral session carts and durable account carts; the owner key
// decides where it is stored.
type Cart struct {
	shared.BaseAggregateRoot
	OwnerKind       OwnerKind       `gorm:"type:varchar(10);not null;uniqueIndex:idx_cart_owner,priority:1" json:"owner_kind"`
	OwnerID         string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_cart_owner,priority:2" json:"owner_id"`
	Items           []CartItem      `gorm:"foreignKey:CartID;references:ID" json:"items"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	PromotionCode   string          `gorm:"type:varchar(50)" json:"promotion_code"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_price"`
	Active          bool            `gorm:"not null;default:true" json:"active"`
}

// TableName returns the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// New creates an empty active cart for the given owner key
func New(key Key) (*Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerKind:         key.Kind,
		OwnerID:           key.ID,
		Items:             make([]CartItem, 0),
		DiscountPercent:   decimal.Zero,
		TotalPrice:        decimal.Zero,
		Active:            true,
	}, nil
}

// Key returns the owner key of this cart
func (c *Cart) Key() Key {
	return Key{Kind: c.OwnerKind, ID: c.OwnerID}
}

// IsEmpty reports whether the cart holds no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalQuantity returns the sum of all item quantities
func (c *Cart) TotalQuantity() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Item returns an item by its ID, or nil
func (c *Cart) Item(itemID uuid.UUID) *CartItem {
	for idx := range c.Items {
		if c.Items[idx].ID == itemID {
			return &c.Items[idx]
		}
	}
	return nil
}

// ItemByProduct returns the item holding the given product, or nil.
// A cart holds at most one item per product.
func (c *Cart) ItemByProduct(productID uuid.UUID) *CartItem {
	for idx := range c.Items {
		if c.Items[idx].ProductID == productID {
			return &c.Items[idx]
		}
	}
	return nil
}

// AddItem merges qty units of a product into the cart. If the product is
// already present its quantity is incremented; otherwise a new line is
// created with the given price snapshot. The caller must have reserved the
// quantity with the inventory ledger before calling this.
func (c *Cart) AddItem(productID uuid.UUID, productName string, unitPrice valueobject.Money, qty int64) (*CartItem, error) {
	if !c.Active {
		return nil, shared.NewDomainError("INACTIVE_CART", "Cannot add items to an inactive cart")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if qty <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive integer")
	}

	now := time.Now()
	if existing := c.ItemByProduct(productID); existing != nil {
		existing.Quantity += qty
		existing.UpdatedAt = now
		c.touch(now)
		return existing, nil
	}

	item := CartItem{
		ID:          uuid.New(),
		CartID:      c.ID,
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice.Amount(),
		Quantity:    qty,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.Items = append(c.Items, item)
	c.touch(now)
	return &c.Items[len(c.Items)-1], nil
}

// SetItemQuantity replaces an item's quantity. Zero is rejected; removal
// goes through RemoveItem.
func (c *Cart) SetItemQuantity(itemID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be a positive integer")
	}
	item := c.Item(itemID)
	if item == nil {
		return shared.ErrNotFound
	}
	item.Quantity = qty
	item.UpdatedAt = time.Now()
	c.touch(item.UpdatedAt)
	return nil
}

// RemoveItem deletes an item from the cart
func (c *Cart) RemoveItem(itemID uuid.UUID) error {
	for idx, item := range c.Items {
		if item.ID == itemID {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			c.touch(time.Now())
			return nil
		}
	}
	return shared.ErrNotFound
}

// Clear empties the cart and drops any applied promotion
func (c *Cart) Clear() {
	c.Items = make([]CartItem, 0)
	c.DiscountPercent = decimal.Zero
	c.PromotionCode = ""
	c.touch(time.Now())
}

// ApplyPromotion sets the cart discount from a redeemable promotion.
// Re-applying the same code is idempotent: the discount replaces the
// previous one, it never compounds.
func (c *Cart) ApplyPromotion(p *Promotion) error {
	if p == nil || !p.IsRedeemable(time.Now()) {
		return shared.ErrInvalidPromotion
	}
	c.DiscountPercent = p.DiscountPercent
	c.PromotionCode = p.Code
	c.touch(time.Now())
	return nil
}

// touch recalculates the cached total and bumps bookkeeping fields
func (c *Cart) touch(now time.Time) {
	c.Recalculate()
	c.UpdatedAt = now
	c.IncrementVersion()
}

// Recalculate recomputes the cached TotalPrice from item snapshots and the
// current discount percent.
func (c *Cart) Recalculate() {
	subtotal := decimal.Zero
	for idx := range c.Items {
		subtotal = subtotal.Add(c.Items[idx].LineTotal())
	}
	if c.DiscountPercent.IsPositive() {
		factor := decimal.NewFromInt(1).Sub(c.DiscountPercent.Div(decimal.NewFromInt(100)))
		subtotal = subtotal.Mul(factor)
	}
	c.TotalPrice = subtotal.Round(4)
}
