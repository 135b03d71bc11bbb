package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Status represents the status of a purchase order
type Status string

const (
	StatusPendingPayment   Status = "PENDING_PAYMENT"
	StatusPaymentConfirmed Status = "PAYMENT_CONFIRMED"
	StatusProcessing       Status = "PROCESSING"
	StatusShipped          Status = "SHIPPED"
	StatusDelivered        Status = "DELIVERED"
	StatusCancelled        Status = "CANCELLED"
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusPaymentConfirmed, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPendingPayment:
		return target == StatusPaymentConfirmed || target == StatusCancelled
	case StatusPaymentConfirmed:
		return target == StatusProcessing || target == StatusCancelled
	case StatusProcessing:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusDelivered
	case StatusDelivered, StatusCancelled:
		return false
	}
	return false
}

// Detail is an order line: a price-and-quantity snapshot of a product taken
// at checkout, decoupled from the live product record.
type Detail struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(200);not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName returns the table name for GORM
func (Detail) TableName() string {
	return "order_details"
}

// LineTotal returns unit price times quantity
func (d *Detail) LineTotal() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(d.Quantity))
}

// PurchaseOrder is the aggregate root for a checkout. It is created in
// PENDING_PAYMENT, mutated only through status transitions, and never
// deleted, only deactivated.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	AccountID     string          `gorm:"type:varchar(100);not null;index"`
	Address       string          `gorm:"type:varchar(500);not null"`
	PaymentMethod string          `gorm:"type:varchar(50);not null"`
	Status        Status          `gorm:"type:varchar(30);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Details       []Detail        `gorm:"foreignKey:OrderID;references:ID"`
	Active        bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// DetailInput carries one cart line into NewPurchaseOrder
type DetailInput struct {
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   valueobject.Money
	Quantity    int64
}

// NewPurchaseOrder creates an order in PENDING_PAYMENT from checkout inputs.
// Amount is the discounted total computed by the cart at checkout time.
func NewPurchaseOrder(accountID, address, paymentMethod string, amount decimal.Decimal, lines []DetailInput) (*PurchaseOrder, error) {
	if accountID == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if address == "" {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Shipping address cannot be empty")
	}
	if paymentMethod == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.ErrEmptyCart
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Order amount cannot be negative")
	}

	o := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AccountID:         accountID,
		Address:           address,
		PaymentMethod:     paymentMethod,
		Status:            StatusPendingPayment,
		Amount:            amount,
		Details:           make([]Detail, 0, len(lines)),
		Active:            true,
	}

	now := time.Now()
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Detail product ID cannot be empty")
		}
		if line.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Detail quantity must be positive")
		}
		o.Details = append(o.Details, Detail{
			ID:          uuid.New(),
			OrderID:     o.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice.Amount(),
			Quantity:    line.Quantity,
			CreatedAt:   now,
		})
	}

	return o, nil
}

// TransitionTo moves the order to newStatus if the edge is legal.
// Returns shared.ErrInvalidStateTransition otherwise.
func (o *PurchaseOrder) TransitionTo(newStatus Status) error {
	if !newStatus.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status %q", newStatus))
	}
	if !o.Status.CanTransitionTo(newStatus) {
		return shared.ErrInvalidStateTransition
	}
	o.Status = newStatus
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// Deactivate soft-deletes the order from shopper-facing listings
func (o *PurchaseOrder) Deactivate() {
	o.Active = false
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// IsCancelled reports whether the order was cancelled
func (o *PurchaseOrder) IsCancelled() bool {
	return o.Status == StatusCancelled
}

// AmountMoney returns the order amount as Money
func (o *PurchaseOrder) AmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.Amount)
}
