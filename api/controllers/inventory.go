package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/medeva/pharmapos-backend/api/responses"
	"github.com/medeva/pharmapos-backend/api/validators"
	"github.com/medeva/pharmapos-backend/internal/inventory"
	"github.com/medeva/pharmapos-backend/pkg/db/models"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
	"github.com/medeva/pharmapos-backend/pkg/logger"
)

// BatchReceive records a stock intake for the authenticated branch.
func BatchReceive(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := branchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body batchReceiveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, err := svc.ReceiveBatch(r.Context(), tenantID, branchID, inventory.ReceiveBatchInput{
			ProductID:   body.ProductID,
			BatchNumber: body.BatchNumber,
			Qty:         body.Qty,
			MRPPaise:    body.MRPPaise,
			ReceivedAt:  body.ReceivedAt,
			ExpiresAt:   body.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newBatchResponse(batch))
	}
}

// BatchList returns a product's batches at the branch in allocation order.
func BatchList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := branchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batches, err := svc.ListBatches(r.Context(), tenantID, branchID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]batchResponse, 0, len(batches))
		for i := range batches {
			items = append(items, newBatchResponse(&batches[i]))
		}
		responses.WriteSuccess(w, batchListResponse{Items: items})
	}
}

type batchReceiveRequest struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	BatchNumber string    `json:"batch_number" validate:"required,max=64"`
	Qty         int       `json:"qty" validate:"required,min=1"`
	MRPPaise    int64     `json:"mrp_paise" validate:"min=0"`
	ReceivedAt  time.Time `json:"received_at" validate:"required"`
	ExpiresAt   time.Time `json:"expires_at" validate:"required"`
}

type batchListResponse struct {
	Items []batchResponse `json:"items"`
}

type batchResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	BatchNumber string    `json:"batch_number"`
	QtyOnHand   int       `json:"qty_on_hand"`
	MRPPaise    int64     `json:"mrp_paise"`
	ReceivedAt  time.Time `json:"received_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func newBatchResponse(batch *models.InventoryBatch) batchResponse {
	if batch == nil {
		return batchResponse{}
	}
	return batchResponse{
		ID:          batch.ID,
		ProductID:   batch.ProductID,
		BatchNumber: batch.BatchNumber,
		QtyOnHand:   batch.QtyOnHand,
		MRPPaise:    batch.MRPPaise,
		ReceivedAt:  batch.ReceivedAt,
		ExpiresAt:   batch.ExpiresAt,
	}
}
