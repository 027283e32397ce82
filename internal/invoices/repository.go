package invoices

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medeva/pharmapos-backend/pkg/db/models"
	"github.com/medeva/pharmapos-backend/pkg/pagination"
)

// Repository provides persistence for committed invoices.
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

// Create persists the invoice with its lines, tax lines, and allocations.
func (r *Repository) Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error) {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

// FindByID loads a fully hydrated invoice.
func (r *Repository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Lines.Allocations").
		Preload("TaxLines").
		First(&invoice, "tenant_id = ? AND id = ?", tenantID, id).
		Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindByNumber loads a fully hydrated invoice by its printed number.
func (r *Repository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Lines.Allocations").
		Preload("TaxLines").
		First(&invoice, "tenant_id = ? AND number = ?", tenantID, number).
		Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List pages through a tenant's invoices newest first, without line detail.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params) ([]models.Invoice, string, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		qb = qb.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Invoice
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

// CreateTaxIdentity registers a new invoicing registration.
func (r *Repository) CreateTaxIdentity(ctx context.Context, identity *models.TaxIdentity) (*models.TaxIdentity, error) {
	if err := r.db.WithContext(ctx).Create(identity).Error; err != nil {
		return nil, err
	}
	return identity, nil
}

// FindTaxIdentity loads one registration scoped to the tenant.
func (r *Repository) FindTaxIdentity(ctx context.Context, tenantID, id uuid.UUID) (*models.TaxIdentity, error) {
	var identity models.TaxIdentity
	err := r.db.WithContext(ctx).
		First(&identity, "tenant_id = ? AND id = ?", tenantID, id).
		Error
	if err != nil {
		return nil, err
	}
	return &identity, nil
}
