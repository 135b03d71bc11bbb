package order

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
)

// LoggingNotificationService emits order lifecycle events to the structured
// log. It stands in for a mail or push gateway; swapping the transport only
// needs another order.NotificationService implementation.
type LoggingNotificationService struct {
	logger *zap.Logger
}

// NewLoggingNotificationService creates a new LoggingNotificationService
func NewLoggingNotificationService(logger *zap.Logger) *LoggingNotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingNotificationService{logger: logger}
}

// OrderEvent logs a lifecycle event for an order
func (s *LoggingNotificationService) OrderEvent(_ context.Context, orderID uuid.UUID, eventKind string) {
	s.logger.Info("order event",
		zap.String("order_id", orderID.String()),
		zap.String("event", eventKind))
}

// Ensure LoggingNotificationService implements NotificationService
var _ order.NotificationService = (*LoggingNotificationService)(nil)
