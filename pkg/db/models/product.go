package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/medeva/pharmapos-backend/pkg/enums"
)

// Product is the canonical drug/SKU record a scanned code resolves to.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	TenantID    uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null"`
	Name        string           `gorm:"column:name;not null"`
	GenericName *string          `gorm:"column:generic_name"`
	HSNCode     string           `gorm:"column:hsn_code;not null"`
	TaxRateBps  int              `gorm:"column:tax_rate_bps;not null"`
	TaxMode     enums.TaxMode    `gorm:"column:tax_mode;not null;default:'exclusive'"`
	PricePaise  int64            `gorm:"column:price_paise;not null"`
	SearchTerms pq.StringArray   `gorm:"column:search_terms;type:text[]"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	Barcodes    []Barcode        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Batches     []InventoryBatch `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Barcode attaches one scannable code to a product. A value is unique among
// active products within a tenant.
type Barcode struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	TenantID  uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null"`
	ProductID uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	Value     string              `gorm:"column:value;not null"`
	Scheme    enums.BarcodeScheme `gorm:"column:scheme;not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}
