package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medeva/pharmapos-backend/pkg/config"
	"github.com/medeva/pharmapos-backend/pkg/db"
	"github.com/medeva/pharmapos-backend/pkg/db/models"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
)

// Service exposes stock intake and queries.
type Service interface {
	ReceiveBatch(ctx context.Context, tenantID, branchID uuid.UUID, input ReceiveBatchInput) (*models.InventoryBatch, error)
	ListBatches(ctx context.Context, tenantID, branchID, productID uuid.UUID) ([]models.InventoryBatch, error)
}

// ReceiveBatchInput holds the validated payload for a stock intake.
type ReceiveBatchInput struct {
	ProductID   uuid.UUID
	BatchNumber string
	Qty         int
	MRPPaise    int64
	ReceivedAt  time.Time
	ExpiresAt   time.Time
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs an inventory service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

// ReceiveBatch validates and records a newly received lot.
func (s *service) ReceiveBatch(ctx context.Context, tenantID, branchID uuid.UUID, input ReceiveBatchInput) (*models.InventoryBatch, error) {
	if strings.TrimSpace(input.BatchNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch number required")
	}
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.MRPPaise < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mrp must not be negative")
	}
	if input.ReceivedAt.IsZero() {
		input.ReceivedAt = time.Now().UTC()
	}
	if input.ExpiresAt.IsZero() || !input.ExpiresAt.After(input.ReceivedAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry must be after the received date")
	}

	batch := &models.InventoryBatch{
		TenantID:    tenantID,
		BranchID:    branchID,
		ProductID:   input.ProductID,
		BatchNumber: strings.TrimSpace(input.BatchNumber),
		QtyOnHand:   input.Qty,
		MRPPaise:    input.MRPPaise,
		ReceivedAt:  input.ReceivedAt,
		ExpiresAt:   input.ExpiresAt,
	}
	if _, err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert inventory batch")
	}
	return batch, nil
}

// ListBatches returns every batch for a product at a branch.
func (s *service) ListBatches(ctx context.Context, tenantID, branchID, productID uuid.UUID) ([]models.InventoryBatch, error) {
	rows, err := s.repo.ListBatches(ctx, tenantID, branchID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list inventory batches")
	}
	return rows, nil
}

// AllocationRequest asks the allocator to draw stock for one sale line.
type AllocationRequest struct {
	TenantID      uuid.UUID
	BranchID      uuid.UUID
	ProductID     uuid.UUID
	Qty           int
	AllowNegative bool
}

// Allocator applies FEFO plans against live stock with bounded optimistic
// retries. It always runs inside the caller's transaction; each attempt is
// fenced by a savepoint so a lost version race never leaves a half-applied
// attempt behind.
type Allocator struct {
	cfg config.CheckoutConfig

	// onConflict is invoked once per lost version race, for metrics.
	onConflict func()
}

// NewAllocator builds an allocator with the configured retry bound.
func NewAllocator(cfg config.CheckoutConfig, onConflict func()) *Allocator {
	return &Allocator{cfg: cfg, onConflict: onConflict}
}

// Allocate plans and applies a stock draw within tx. On version conflicts the
// attempt is rolled back to its savepoint and re-planned from a fresh read, up
// to the configured bound.
func (a *Allocator) Allocate(ctx context.Context, tx *gorm.DB, req AllocationRequest) (*Plan, error) {
	if req.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	repo := NewRepository(tx)
	attempts := a.cfg.AllocationRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		batches, err := repo.FindAvailableBatches(ctx, req.TenantID, req.BranchID, req.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: read available batches")
		}

		plan := BuildPlan(batches, req.Qty)
		if plan.Partial {
			if !req.AllowNegative {
				return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "available stock cannot cover the request").
					WithDetails(map[string]any{
						"product_id": req.ProductID,
						"requested":  plan.Requested,
						"available":  plan.Allocated,
					})
			}
			if len(plan.Allocations) == 0 {
				// the override needs at least one batch to carry the debt
				return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "no batches exist to draw against").
					WithDetails(map[string]any{"product_id": req.ProductID, "requested": plan.Requested})
			}
			last := &plan.Allocations[len(plan.Allocations)-1]
			last.QtyTaken += plan.Requested - plan.Allocated
			plan.Allocated = plan.Requested
			plan.Partial = false
		}

		applied, err := a.applyAttempt(ctx, tx, repo, plan, req.AllowNegative, attempt)
		if err != nil {
			return nil, err
		}
		if applied {
			return &plan, nil
		}
		if a.onConflict != nil {
			a.onConflict()
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeConflict, "stock allocation retries exhausted").
		WithDetails(map[string]any{"product_id": req.ProductID})
}

func (a *Allocator) applyAttempt(ctx context.Context, tx *gorm.DB, repo *Repository, plan Plan, allowNegative bool, attempt int) (bool, error) {
	sp := fmt.Sprintf("alloc_attempt_%d", attempt)
	if err := tx.SavePoint(sp).Error; err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create savepoint")
	}

	for _, allocation := range plan.Allocations {
		ok, err := repo.DecrementBatch(ctx, allocation.BatchID, allocation.QtyTaken, allocation.Version, allowNegative)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement batch")
		}
		if !ok {
			if err := tx.RollbackTo(sp).Error; err != nil {
				return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: rollback to savepoint")
			}
			return false, nil
		}
	}
	return true, nil
}
