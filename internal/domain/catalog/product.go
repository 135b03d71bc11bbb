package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Product represents a sellable product in the catalog.
// Stock is the available-to-sell counter; it is mutated exclusively through
// the inventory ledger, never by catalog writes.
type Product struct {
	shared.BaseAggregateRoot
	SKU         string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Stock       int64           `gorm:"not null;default:0"`
	Active      bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(sku, name string, price valueobject.Money, stock int64) (*Product, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if len(sku) > 50 {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Product stock cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               strings.ToUpper(sku),
		Name:              name,
		Price:             price.Amount(),
		Stock:             stock,
		Active:            true,
	}, nil
}

// UpdatePrice changes the selling price
func (p *Product) UpdatePrice(price valueobject.Money) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}
	p.Price = price.Amount()
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Deactivate soft-deletes the product from the sellable catalog
func (p *Product) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Activate returns the product to the sellable catalog
func (p *Product) Activate() {
	p.Active = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// IsSellable reports whether the product can currently be added to carts
func (p *Product) IsSellable() bool {
	return p.Active
}

// PriceMoney returns the selling price as a Money value object
func (p *Product) PriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Price)
}
