package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medeva/pharmapos-backend/pkg/db/models"
	"github.com/medeva/pharmapos-backend/pkg/enums"
	"github.com/medeva/pharmapos-backend/pkg/pagination"
)

// ProductRepository defines persistence operations for the product master.
type ProductRepository interface {
	CreateProduct(context.Context, *models.Product) (*models.Product, error)
	UpdateProduct(context.Context, *models.Product) (*models.Product, error)
	DeactivateProduct(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID, params pagination.Params) ([]models.Product, string, error)
}

// LookupRepository exposes the scheme-aware reads the resolver needs.
type LookupRepository interface {
	FindByBarcodeValue(ctx context.Context, tenantID uuid.UUID, value string) (*models.Product, error)
	FindByInternalCode(ctx context.Context, tenantID uuid.UUID, value string) (*models.Product, error)
	FindByHSNCode(ctx context.Context, tenantID uuid.UUID, hsn string) ([]models.Product, error)
	FindByNamePrefix(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) ([]models.Product, error)
}

// Repository wires together product master and lookup persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateProduct inserts a product row along with any attached barcodes.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct saves an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeactivateProduct retires a product from sale without deleting its history.
func (r *Repository) DeactivateProduct(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID loads the product with its barcodes.
func (r *Repository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Barcodes").
		First(&product, "tenant_id = ? AND id = ?", tenantID, id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts pages through a tenant's products newest first.
func (r *Repository) ListProducts(ctx context.Context, tenantID uuid.UUID, params pagination.Params) ([]models.Product, string, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Preload("Barcodes").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		qb = qb.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := qb.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// FindByBarcodeValue returns the active product owning the exact code value.
func (r *Repository) FindByBarcodeValue(ctx context.Context, tenantID uuid.UUID, value string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Joins("JOIN barcodes ON barcodes.product_id = products.id").
		Where("barcodes.tenant_id = ? AND barcodes.value = ? AND products.is_active", tenantID, value).
		First(&product).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByInternalCode matches internal-scheme codes case-insensitively; scanners
// in the field lowercase them inconsistently.
func (r *Repository) FindByInternalCode(ctx context.Context, tenantID uuid.UUID, value string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Joins("JOIN barcodes ON barcodes.product_id = products.id").
		Where("barcodes.tenant_id = ? AND barcodes.scheme = ? AND UPPER(barcodes.value) = ? AND products.is_active",
			tenantID, enums.BarcodeSchemeInternal, strings.ToUpper(value)).
		First(&product).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByHSNCode returns the active products filed under a tariff code.
func (r *Repository) FindByHSNCode(ctx context.Context, tenantID uuid.UUID, hsn string) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND hsn_code = ? AND is_active", tenantID, hsn).
		Order("name ASC").
		Limit(2).
		Find(&rows).
		Error
	return rows, err
}

// FindByNamePrefix returns active products whose name starts with the prefix.
func (r *Repository) FindByNamePrefix(ctx context.Context, tenantID uuid.UUID, prefix string, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active AND LOWER(name) LIKE ?", tenantID, strings.ToLower(prefix)+"%").
		Order("name ASC").
		Limit(limit).
		Find(&rows).
		Error
	return rows, err
}
