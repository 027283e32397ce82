package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/medeva/pharmapos-backend/pkg/enums"
)

// Invoice is the durable output of a committed checkout. Never mutated after
// creation; credits/returns are a separate flow.
type Invoice struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	TenantID       uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null"`
	BranchID       uuid.UUID        `gorm:"column:branch_id;type:uuid;not null"`
	TaxIdentityID  uuid.UUID        `gorm:"column:tax_identity_id;type:uuid;not null"`
	Number         string           `gorm:"column:number;not null"`
	Sequence       int64            `gorm:"column:sequence;not null"`
	BuyerStateCode string           `gorm:"column:buyer_state_code;not null"`
	SubtotalPaise  int64            `gorm:"column:subtotal_paise;not null"`
	DiscountPaise  int64            `gorm:"column:discount_paise;not null;default:0"`
	TaxPaise       int64            `gorm:"column:tax_paise;not null"`
	RoundOffPaise  int64            `gorm:"column:round_off_paise;not null;default:0"`
	TotalPaise     int64            `gorm:"column:total_paise;not null"`
	Lines          []InvoiceLine    `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	TaxLines       []InvoiceTaxLine `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// InvoiceLine snapshots one cart line at commit time.
type InvoiceLine struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID      uuid.UUID         `gorm:"column:invoice_id;type:uuid;not null"`
	ProductID      uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	Name           string            `gorm:"column:name;not null"`
	HSNCode        string            `gorm:"column:hsn_code;not null"`
	Qty            int               `gorm:"column:qty;not null"`
	UnitPricePaise int64             `gorm:"column:unit_price_paise;not null"`
	DiscountPaise  int64             `gorm:"column:discount_paise;not null;default:0"`
	TaxablePaise   int64             `gorm:"column:taxable_paise;not null"`
	TaxPaise       int64             `gorm:"column:tax_paise;not null"`
	TotalPaise     int64             `gorm:"column:total_paise;not null"`
	TaxRateBps     int               `gorm:"column:tax_rate_bps;not null"`
	TaxMode        enums.TaxMode     `gorm:"column:tax_mode;not null"`
	Allocations    []BatchAllocation `gorm:"foreignKey:InvoiceLineID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// InvoiceTaxLine is one aggregated tax component over the whole invoice.
type InvoiceTaxLine struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID   uuid.UUID              `gorm:"column:invoice_id;type:uuid;not null"`
	Kind        enums.TaxComponentKind `gorm:"column:kind;not null"`
	RateBps     int                    `gorm:"column:rate_bps;not null"`
	AmountPaise int64                  `gorm:"column:amount_paise;not null"`
}

// BatchAllocation records which batch each invoiced unit was drawn from.
type BatchAllocation struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceLineID uuid.UUID `gorm:"column:invoice_line_id;type:uuid;not null"`
	BatchID       uuid.UUID `gorm:"column:batch_id;type:uuid;not null"`
	BatchNumber   string    `gorm:"column:batch_number;not null"`
	QtyTaken      int       `gorm:"column:qty_taken;not null"`
	ExpiresAt     time.Time `gorm:"column:expires_at;not null"`
}
