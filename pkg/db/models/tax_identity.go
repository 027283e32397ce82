package models

import (
	"time"

	"github.com/google/uuid"
)

// TaxIdentity is one GST registration a tenant invoices under. It owns the
// invoice number sequence: InvoiceCounter is the perpetual audit counter and
// only ever increments, FYCounter feeds the printed NNNN and resets when
// FYStartYear rolls over. Both move in a single atomic update.
type TaxIdentity struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TenantID       uuid.UUID `gorm:"column:tenant_id;type:uuid;not null"`
	GSTIN          string    `gorm:"column:gstin;not null"`
	StateCode      string    `gorm:"column:state_code;not null"`
	InvoicePrefix  string    `gorm:"column:invoice_prefix;not null"`
	InvoiceCounter int64     `gorm:"column:invoice_counter;not null;default:0"`
	FYCounter      int64     `gorm:"column:fy_counter;not null;default:0"`
	FYStartYear    int       `gorm:"column:fy_start_year;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
