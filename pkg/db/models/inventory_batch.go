package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryBatch tracks one received lot of a product at a branch. QtyOnHand
// never goes below zero unless a checkout explicitly permits the override.
// Version guards concurrent decrements.
type InventoryBatch struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TenantID    uuid.UUID `gorm:"column:tenant_id;type:uuid;not null"`
	BranchID    uuid.UUID `gorm:"column:branch_id;type:uuid;not null"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	BatchNumber string    `gorm:"column:batch_number;not null"`
	QtyOnHand   int       `gorm:"column:qty_on_hand;not null;default:0"`
	MRPPaise    int64     `gorm:"column:mrp_paise;not null;default:0"`
	ReceivedAt  time.Time `gorm:"column:received_at;not null"`
	ExpiresAt   time.Time `gorm:"column:expires_at;not null"`
	Version     int64     `gorm:"column:version;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
