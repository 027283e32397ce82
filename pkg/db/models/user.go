package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/medeva/pharmapos-backend/pkg/enums"
)

// User is a counter login. The checkout core trusts the authenticated
// tenant/branch context and never re-derives it.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	TenantID     uuid.UUID      `gorm:"column:tenant_id;type:uuid;not null"`
	BranchID     *uuid.UUID     `gorm:"column:branch_id;type:uuid"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;not null;default:'cashier'"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
