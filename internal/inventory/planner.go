package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/medeva/pharmapos-backend/pkg/db/models"
)

// Allocation is one batch draw within a plan.
type Allocation struct {
	BatchID     uuid.UUID
	BatchNumber string
	QtyTaken    int
	Version     int64
	ExpiresAt   time.Time
}

// Plan is the outcome of a FEFO walk over the available batches. Partial is
// set when available stock cannot cover the request; the allocations then sum
// to exactly the available quantity, never silently less.
type Plan struct {
	Allocations []Allocation
	Requested   int
	Allocated   int
	Partial     bool
}

// BuildPlan walks batches first-expiry-first-out and draws the requested
// quantity. Ties on expiry break by received date, then batch number, so the
// same snapshot always produces the same plan. The caller applies the plan
// transactionally; this function only computes it.
func BuildPlan(batches []models.InventoryBatch, requested int) Plan {
	plan := Plan{Requested: requested}
	if requested <= 0 {
		return plan
	}

	sorted := make([]models.InventoryBatch, 0, len(batches))
	for _, batch := range batches {
		if batch.QtyOnHand > 0 {
			sorted = append(sorted, batch)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].ExpiresAt.Equal(sorted[j].ExpiresAt) {
			return sorted[i].ExpiresAt.Before(sorted[j].ExpiresAt)
		}
		if !sorted[i].ReceivedAt.Equal(sorted[j].ReceivedAt) {
			return sorted[i].ReceivedAt.Before(sorted[j].ReceivedAt)
		}
		return sorted[i].BatchNumber < sorted[j].BatchNumber
	})

	remaining := requested
	for _, batch := range sorted {
		if remaining == 0 {
			break
		}
		take := batch.QtyOnHand
		if take > remaining {
			take = remaining
		}
		plan.Allocations = append(plan.Allocations, Allocation{
			BatchID:     batch.ID,
			BatchNumber: batch.BatchNumber,
			QtyTaken:    take,
			Version:     batch.Version,
			ExpiresAt:   batch.ExpiresAt,
		})
		remaining -= take
	}

	plan.Allocated = requested - remaining
	plan.Partial = remaining > 0
	return plan
}
