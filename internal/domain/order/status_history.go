package order

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistory is one append-only audit row per status transition. The
// initial creation row carries a nil OldStatus.
type StatusHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	OldStatus *Status   `gorm:"type:varchar(30)" json:"old_status"`
	NewStatus Status    `gorm:"type:varchar(30);not null" json:"new_status"`
	ChangedBy string    `gorm:"type:varchar(100);not null" json:"changed_by"`
	ChangedAt time.Time `gorm:"not null" json:"changed_at"`
}

// TableName returns the table name for GORM
func (StatusHistory) TableName() string {
	return "order_status_history"
}

// NewStatusHistory records a transition performed by an actor
func NewStatusHistory(orderID uuid.UUID, oldStatus *Status, newStatus Status, changedBy string) StatusHistory {
	return StatusHistory{
		ID:        uuid.New(),
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: changedBy,
		ChangedAt: time.Now(),
	}
}
