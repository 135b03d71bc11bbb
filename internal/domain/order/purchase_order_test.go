package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func testLines(qty int64) []DetailInput {
	return []DetailInput{
		{
			ProductID:   uuid.New(),
			ProductName: "Widget",
			UnitPrice:   valueobject.NewMoneyUSDFromFloat(9.99),
			Quantity:    qty,
		},
	}
}

func createTestOrder(t *testing.T) *PurchaseOrder {
	o, err := NewPurchaseOrder("acct-1", "221B Baker Street", "card", decimal.NewFromFloat(9.99), testLines(1))
	require.NoError(t, err)
	return o
}

// ============================================
// Status Tests
// ============================================

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  Status
		isValid bool
	}{
		{StatusPendingPayment, true},
		{StatusPaymentConfirmed, true},
		{StatusProcessing, true},
		{StatusShipped, true},
		{StatusDelivered, true},
		{StatusCancelled, true},
		{Status("INVALID"), false},
		{Status(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     Status
		to       Status
		canTrans bool
	}{
		// From PENDING_PAYMENT
		{StatusPendingPayment, StatusPaymentConfirmed, true},
		{StatusPendingPayment, StatusCancelled, true},
		{StatusPendingPayment, StatusProcessing, false},
		{StatusPendingPayment, StatusShipped, false},
		{StatusPendingPayment, StatusDelivered, false},
		// From PAYMENT_CONFIRMED
		{StatusPaymentConfirmed, StatusProcessing, true},
		{StatusPaymentConfirmed, StatusCancelled, true},
		{StatusPaymentConfirmed, StatusShipped, false},
		{StatusPaymentConfirmed, StatusPendingPayment, false},
		// From PROCESSING
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusDelivered, false},
		// From SHIPPED
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusShipped, StatusProcessing, false},
		// From DELIVERED (terminal)
		{StatusDelivered, StatusPendingPayment, false},
		{StatusDelivered, StatusCancelled, false},
		// From CANCELLED (terminal)
		{StatusCancelled, StatusPendingPayment, false},
		{StatusCancelled, StatusPaymentConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPendingPayment.IsTerminal())
	assert.False(t, StatusShipped.IsTerminal())
}

// ============================================
// NewPurchaseOrder Tests
// ============================================

func TestNewPurchaseOrder(t *testing.T) {
	t.Run("creates order in pending payment", func(t *testing.T) {
		o := createTestOrder(t)

		assert.Equal(t, StatusPendingPayment, o.Status)
		assert.Equal(t, "acct-1", o.AccountID)
		assert.True(t, o.Active)
		require.Len(t, o.Details, 1)
		assert.Equal(t, o.ID, o.Details[0].OrderID)
		assert.True(t, o.Details[0].UnitPrice.Equal(decimal.NewFromFloat(9.99)))
	})

	t.Run("rejects empty lines", func(t *testing.T) {
		_, err := NewPurchaseOrder("acct-1", "addr", "card", decimal.Zero, nil)
		assert.ErrorIs(t, err, shared.ErrEmptyCart)
	})

	t.Run("rejects non-positive line quantity", func(t *testing.T) {
		_, err := NewPurchaseOrder("acct-1", "addr", "card", decimal.Zero, testLines(0))
		assert.Error(t, err)
	})

	t.Run("rejects missing address", func(t *testing.T) {
		_, err := NewPurchaseOrder("acct-1", "", "card", decimal.Zero, testLines(1))
		assert.Error(t, err)
	})
}

// ============================================
// Transition Tests
// ============================================

func TestPurchaseOrder_TransitionTo(t *testing.T) {
	t.Run("legal chain to delivered", func(t *testing.T) {
		o := createTestOrder(t)

		require.NoError(t, o.TransitionTo(StatusPaymentConfirmed))
		require.NoError(t, o.TransitionTo(StatusProcessing))
		require.NoError(t, o.TransitionTo(StatusShipped))
		require.NoError(t, o.TransitionTo(StatusDelivered))
		assert.Equal(t, StatusDelivered, o.Status)
	})

	t.Run("illegal edge rejected", func(t *testing.T) {
		o := createTestOrder(t)
		err := o.TransitionTo(StatusShipped)
		assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
		assert.Equal(t, StatusPendingPayment, o.Status, "status unchanged after rejection")
	})

	t.Run("delivered is terminal", func(t *testing.T) {
		o := createTestOrder(t)
		require.NoError(t, o.TransitionTo(StatusPaymentConfirmed))
		require.NoError(t, o.TransitionTo(StatusProcessing))
		require.NoError(t, o.TransitionTo(StatusShipped))
		require.NoError(t, o.TransitionTo(StatusDelivered))

		assert.ErrorIs(t, o.TransitionTo(StatusPendingPayment), shared.ErrInvalidStateTransition)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		o := createTestOrder(t)
		assert.Error(t, o.TransitionTo(Status("LOST")))
	})
}

// ============================================
// StatusHistory Tests
// ============================================

func TestNewStatusHistory(t *testing.T) {
	orderID := uuid.New()

	t.Run("initial row has nil old status", func(t *testing.T) {
		h := NewStatusHistory(orderID, nil, StatusPendingPayment, "acct-1")
		assert.Nil(t, h.OldStatus)
		assert.Equal(t, StatusPendingPayment, h.NewStatus)
		assert.Equal(t, "acct-1", h.ChangedBy)
		assert.False(t, h.ChangedAt.IsZero())
	})

	t.Run("transition row records both sides", func(t *testing.T) {
		old := StatusPendingPayment
		h := NewStatusHistory(orderID, &old, StatusCancelled, "staff:ops")
		require.NotNil(t, h.OldStatus)
		assert.Equal(t, StatusPendingPayment, *h.OldStatus)
		assert.Equal(t, StatusCancelled, h.NewStatus)
	})
}
