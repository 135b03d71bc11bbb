package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// CheckoutInput carries the request body for checkout
type CheckoutInput struct {
	Address       string `json:"address" binding:"required,max=500"`
	PaymentMethod string `json:"payment_method" binding:"required,max=50"`
}

// TransitionInput carries the request body for a status transition
type TransitionInput struct {
	Status string `json:"status" binding:"required"`
}

// DetailView represents one order line in API responses
type DetailView struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// HistoryView represents one audit row in API responses
type HistoryView struct {
	OldStatus *string   `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// OrderView represents a purchase order in API responses
type OrderView struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     string          `json:"account_id"`
	Address       string          `json:"address"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Details       []DetailView    `json:"details"`
	History       []HistoryView   `json:"history,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToOrderView converts a purchase order to its response representation
func ToOrderView(o *order.PurchaseOrder) OrderView {
	details := make([]DetailView, 0, len(o.Details))
	for idx := range o.Details {
		d := &o.Details[idx]
		details = append(details, DetailView{
			ID:          d.ID,
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			UnitPrice:   d.UnitPrice,
			Quantity:    d.Quantity,
			LineTotal:   d.LineTotal(),
		})
	}
	return OrderView{
		ID:            o.ID,
		AccountID:     o.AccountID,
		Address:       o.Address,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status.String(),
		Amount:        o.Amount,
		Details:       details,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// ToHistoryViews converts audit rows to their response representation
func ToHistoryViews(entries []order.StatusHistory) []HistoryView {
	views := make([]HistoryView, 0, len(entries))
	for _, entry := range entries {
		var old *string
		if entry.OldStatus != nil {
			s := entry.OldStatus.String()
			old = &s
		}
		views = append(views, HistoryView{
			OldStatus: old,
			NewStatus: entry.NewStatus.String(),
			ChangedBy: entry.ChangedBy,
			ChangedAt: entry.ChangedAt,
		})
	}
	return views
}
