package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads an order with its details, including deactivated orders
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.PurchaseOrder, error) {
	var o order.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Details").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByAccount lists an account's active orders, newest first by default
func (r *GormOrderRepository) FindByAccount(ctx context.Context, accountID string, filter shared.Filter) ([]order.PurchaseOrder, error) {
	var orders []order.PurchaseOrder
	query := r.db.WithContext(ctx).Model(&order.PurchaseOrder{}).
		Preload("Details").
		Where("account_id = ? AND active = ?", accountID, true)
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if err := applyFilter(query, filter).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CountByAccount counts an account's active orders
func (r *GormOrderRepository) CountByAccount(ctx context.Context, accountID string, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&order.PurchaseOrder{}).
		Where("account_id = ? AND active = ?", accountID, true)
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the order and its details in one transaction. Updates are
// guarded by the aggregate version.
func (r *GormOrderRepository) Save(ctx context.Context, o *order.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveOrder(tx, o)
	})
}

// CreateFromCheckout writes the new order, its opening history row, and the
// removal of the source cart in a single transaction. If any of the three
// fails nothing is committed, so the cart keeps its lines and their
// reservations.
func (r *GormOrderRepository) CreateFromCheckout(ctx context.Context, o *order.PurchaseOrder, opening order.StatusHistory, source cart.Key) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		if err := tx.Create(&opening).Error; err != nil {
			return err
		}
		return deleteCartRows(tx, source)
	})
}

// SaveWithHistory persists a status change and its audit row together.
// A transition that cannot be audited is not committed.
func (r *GormOrderRepository) SaveWithHistory(ctx context.Context, o *order.PurchaseOrder, entry order.StatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveOrder(tx, o); err != nil {
			return err
		}
		return tx.Create(&entry).Error
	})
}

// saveOrder creates or updates the order row inside the caller's
// transaction. Updates are version guarded; details are immutable snapshots
// written at creation, so updates only touch the order row itself.
func saveOrder(tx *gorm.DB, o *order.PurchaseOrder) error {
	var stored order.PurchaseOrder
	err := tx.Select("version").Where("id = ?", o.ID).Take(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(o).Error
	}
	if err != nil {
		return err
	}

	if stored.Version >= o.Version {
		return shared.ErrConcurrencyConflict
	}

	res := tx.Model(&order.PurchaseOrder{}).
		Where("id = ? AND version = ?", o.ID, stored.Version).
		Updates(map[string]interface{}{
			"status":     o.Status,
			"active":     o.Active,
			"version":    o.Version,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
