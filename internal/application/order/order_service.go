package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/application/keylock"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderService handles checkout and the order lifecycle. Checkout takes the
// same per-cart lock as cart mutations, so a cart cannot change while it is
// being converted into an order.
type OrderService struct {
	orderRepo order.Repository
	history   order.StatusHistoryRepository
	carts     cart.Repository
	ledger    inventory.Ledger
	notifier  order.NotificationService
	locks     *keylock.KeyedMutex
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.Repository,
	history order.StatusHistoryRepository,
	carts cart.Repository,
	ledger inventory.Ledger,
	notifier order.NotificationService,
	locks *keylock.KeyedMutex,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo: orderRepo,
		history:   history,
		carts:     carts,
		ledger:    ledger,
		notifier:  notifier,
		locks:     locks,
		logger:    logger,
	}
}

// Checkout converts the actor's account cart into a purchase order. Cart
// lines become immutable detail snapshots and the cart's discounted total
// becomes the order amount. Stock stays reserved: the quantities were taken
// from the ledger when the lines were added, and from here on only a
// cancellation returns them. The cart is discarded once the order exists.
func (s *OrderService) Checkout(ctx context.Context, actor Actor, input CheckoutInput) (OrderView, error) {
	if !actor.Authenticated() {
		return OrderView{}, shared.ErrUnauthorized
	}

	key := cart.AccountKey(actor.AccountID)
	unlock := s.locks.Lock(key.String())
	defer unlock()

	c, err := s.carts.Find(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return OrderView{}, shared.ErrEmptyCart
		}
		return OrderView{}, err
	}
	if c.IsEmpty() {
		return OrderView{}, shared.ErrEmptyCart
	}

	lines := make([]order.DetailInput, 0, len(c.Items))
	for idx := range c.Items {
		item := &c.Items[idx]
		lines = append(lines, order.DetailInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   valueobject.NewMoneyUSD(item.UnitPrice),
			Quantity:    item.Quantity,
		})
	}

	o, err := order.NewPurchaseOrder(actor.AccountID, input.Address, input.PaymentMethod, c.TotalPrice, lines)
	if err != nil {
		return OrderView{}, err
	}
	// The order, its opening history row, and the cart removal commit
	// together. The order now owns the reservations, so nothing is released
	// here, and the cart cannot survive to be checked out twice.
	opening := order.NewStatusHistory(o.ID, nil, o.Status, actor.Identity())
	if err := s.orderRepo.CreateFromCheckout(ctx, o, opening, key); err != nil {
		return OrderView{}, err
	}

	s.notifier.OrderEvent(ctx, o.ID, "ORDER_CREATED")
	s.logger.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("account_id", actor.AccountID),
		zap.Int("lines", len(lines)),
		zap.String("amount", o.Amount.String()))
	return ToOrderView(o), nil
}

// TransitionStatus moves an order along its lifecycle. Only the owning
// account or a staff actor may transition an order. Cancellation returns
// every detail quantity to stock; no other transition touches the ledger.
func (s *OrderService) TransitionStatus(ctx context.Context, actor Actor, orderID uuid.UUID, target order.Status) (OrderView, error) {
	o, err := s.authorizedOrder(ctx, actor, orderID)
	if err != nil {
		return OrderView{}, err
	}

	oldStatus := o.Status
	if err := o.TransitionTo(target); err != nil {
		return OrderView{}, err
	}
	entry := order.NewStatusHistory(o.ID, &oldStatus, o.Status, actor.Identity())
	if err := s.orderRepo.SaveWithHistory(ctx, o, entry); err != nil {
		return OrderView{}, err
	}

	if o.IsCancelled() {
		for idx := range o.Details {
			d := &o.Details[idx]
			if err := s.ledger.Release(ctx, d.ProductID, d.Quantity); err != nil {
				s.logger.Error("stock release failed on cancellation",
					zap.String("order_id", o.ID.String()),
					zap.String("product_id", d.ProductID.String()),
					zap.Int64("quantity", d.Quantity),
					zap.Error(err))
			}
		}
	}

	s.notifier.OrderEvent(ctx, o.ID, "ORDER_"+o.Status.String())
	s.logger.Info("order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("from", oldStatus.String()),
		zap.String("to", o.Status.String()),
		zap.String("changed_by", actor.Identity()))
	return ToOrderView(o), nil
}

// GetOrder returns one order, optionally with its audit trail
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID, includeHistory bool) (OrderView, error) {
	o, err := s.authorizedOrder(ctx, actor, orderID)
	if err != nil {
		return OrderView{}, err
	}

	view := ToOrderView(o)
	if includeHistory {
		entries, err := s.history.FindByOrder(ctx, orderID)
		if err != nil {
			return OrderView{}, err
		}
		view.History = ToHistoryViews(entries)
	}
	return view, nil
}

// ListOrders returns the actor's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, filter shared.Filter) (shared.Paginated[OrderView], error) {
	if !actor.Authenticated() {
		return shared.Paginated[OrderView]{}, shared.ErrUnauthorized
	}

	orders, err := s.orderRepo.FindByAccount(ctx, actor.AccountID, filter)
	if err != nil {
		return shared.Paginated[OrderView]{}, err
	}
	total, err := s.orderRepo.CountByAccount(ctx, actor.AccountID, filter)
	if err != nil {
		return shared.Paginated[OrderView]{}, err
	}

	views := make([]OrderView, 0, len(orders))
	for idx := range orders {
		views = append(views, ToOrderView(&orders[idx]))
	}
	return shared.NewPaginated(views, total, filter.Page, filter.PageSize), nil
}

func (s *OrderService) authorizedOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*order.PurchaseOrder, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Staff && o.AccountID != actor.AccountID {
		return nil, shared.ErrUnauthorized
	}
	return o, nil
}
