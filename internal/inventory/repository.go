package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medeva/pharmapos-backend/pkg/db/models"
)

// Repository provides persistence for inventory batches.
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

// CreateBatch records a newly received lot.
func (r *Repository) CreateBatch(ctx context.Context, batch *models.InventoryBatch) (*models.InventoryBatch, error) {
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

// FindAvailableBatches returns the sellable batches for a product in FEFO
// order. Exhausted batches are excluded in the query, not skipped later, so a
// zeroed batch can never re-enter a plan.
func (r *Repository) FindAvailableBatches(ctx context.Context, tenantID, branchID, productID uuid.UUID) ([]models.InventoryBatch, error) {
	var rows []models.InventoryBatch
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND branch_id = ? AND product_id = ? AND qty_on_hand > 0",
			tenantID, branchID, productID).
		Order("expires_at ASC, received_at ASC, batch_number ASC").
		Find(&rows).
		Error
	return rows, err
}

// ListBatches returns every batch for a product at a branch, including
// exhausted ones, newest received first.
func (r *Repository) ListBatches(ctx context.Context, tenantID, branchID, productID uuid.UUID) ([]models.InventoryBatch, error) {
	var rows []models.InventoryBatch
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND branch_id = ? AND product_id = ?", tenantID, branchID, productID).
		Order("received_at DESC, batch_number ASC").
		Find(&rows).
		Error
	return rows, err
}

// DecrementBatch takes qty from a batch iff its version is unchanged since the
// plan was computed. Returns false without error when another checkout got
// there first; the caller re-plans.
func (r *Repository) DecrementBatch(ctx context.Context, batchID uuid.UUID, qty int, version int64, allowNegative bool) (bool, error) {
	qb := r.db.WithContext(ctx).
		Model(&models.InventoryBatch{}).
		Where("id = ? AND version = ?", batchID, version)
	if !allowNegative {
		qb = qb.Where("qty_on_hand >= ?", qty)
	}
	result := qb.Updates(map[string]any{
		"qty_on_hand": gorm.Expr("qty_on_hand - ?", qty),
		"version":     gorm.Expr("version + 1"),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
