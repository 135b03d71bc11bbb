package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// Repository defines persistence operations for purchase orders. Orders are
// loaded as full aggregates with their details. FindByID sees every row
// including deactivated orders; FindByAccount returns active orders only.
//
// Every write carries its audit row so an order state and its history can
// never diverge: CreateFromCheckout commits the new order, the opening
// history row, and the removal of the source cart as one atomic write, and
// SaveWithHistory does the same for a status change and its row.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindByAccount(ctx context.Context, accountID string, filter shared.Filter) ([]PurchaseOrder, error)
	CountByAccount(ctx context.Context, accountID string, filter shared.Filter) (int64, error)
	CreateFromCheckout(ctx context.Context, o *PurchaseOrder, opening StatusHistory, source cart.Key) error
	SaveWithHistory(ctx context.Context, o *PurchaseOrder, entry StatusHistory) error
}

// StatusHistoryRepository reads the order audit trail. Rows are written only
// through Repository writes; nothing updates or deletes them.
type StatusHistoryRepository interface {
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]StatusHistory, error)
}

// NotificationService is invoked after checkout and after each status
// transition. Failures must not roll back the enclosing operation.
type NotificationService interface {
	OrderEvent(ctx context.Context, orderID uuid.UUID, eventKind string)
}
