package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
	"gorm.io/gorm"
)

// GormStatusHistoryRepository implements order.StatusHistoryRepository.
// The table is append only and rows are inserted by the order repository's
// transactional writes; this repository only reads them back.
type GormStatusHistoryRepository struct {
	db *gorm.DB
}

// NewGormStatusHistoryRepository creates a new GormStatusHistoryRepository
func NewGormStatusHistoryRepository(db *gorm.DB) *GormStatusHistoryRepository {
	return &GormStatusHistoryRepository{db: db}
}

// FindByOrder returns an order's history in chronological order
func (r *GormStatusHistoryRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]order.StatusHistory, error) {
	var entries []order.StatusHistory
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("changed_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Ensure GormStatusHistoryRepository implements order.StatusHistoryRepository
var _ order.StatusHistoryRepository = (*GormStatusHistoryRepository)(nil)
