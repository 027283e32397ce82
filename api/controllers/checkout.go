package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/medeva/pharmapos-backend/api/responses"
	"github.com/medeva/pharmapos-backend/api/validators"
	checkoutsvc "github.com/medeva/pharmapos-backend/internal/checkout"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
	"github.com/medeva/pharmapos-backend/pkg/logger"
)

// Checkout turns a scanned cart into a committed invoice in one shot.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
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

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]checkoutsvc.Line, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, checkoutsvc.Line{
				ScannedCode:            line.ScannedCode,
				Qty:                    line.Qty,
				UnitPriceOverridePaise: line.UnitPriceOverridePaise,
				DiscountPaise:          line.DiscountPaise,
			})
		}

		result, err := svc.Checkout(r.Context(), checkoutsvc.Request{
			TenantID:           tenantID,
			BranchID:           branchID,
			TaxIdentityID:      payload.TaxIdentityID,
			BuyerStateCode:     payload.BuyerStateCode,
			Lines:              lines,
			AllowNegativeStock: payload.AllowNegativeStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}

type checkoutLineRequest struct {
	ScannedCode            string `json:"scanned_code" validate:"required,max=64"`
	Qty                    int    `json:"qty" validate:"required"`
	UnitPriceOverridePaise *int64 `json:"unit_price_override_paise,omitempty" validate:"omitempty,min=0"`
	DiscountPaise          int64  `json:"discount_paise" validate:"min=0"`
}

type checkoutRequest struct {
	TaxIdentityID      uuid.UUID             `json:"tax_identity_id" validate:"required"`
	BuyerStateCode     string                `json:"buyer_state_code" validate:"required,len=2"`
	Lines              []checkoutLineRequest `json:"lines" validate:"required,min=1,dive"`
	AllowNegativeStock *bool                 `json:"allow_negative_stock,omitempty"`
}

type checkoutResponse struct {
	InvoiceID     uuid.UUID             `json:"invoice_id"`
	InvoiceNumber string                `json:"invoice_number"`
	Sequence      int64                 `json:"sequence"`
	SubtotalPaise int64                 `json:"subtotal_paise"`
	DiscountPaise int64                 `json:"discount_paise"`
	TaxPaise      int64                 `json:"tax_paise"`
	RoundOffPaise int64                 `json:"round_off_paise"`
	TotalPaise    int64                 `json:"total_paise"`
	Lines         []invoiceLineResponse `json:"lines"`
	TaxSummary    []taxLineResponse     `json:"tax_summary"`
}

func newCheckoutResponse(result *checkoutsvc.Result) checkoutResponse {
	if result == nil {
		return checkoutResponse{}
	}
	lines := make([]invoiceLineResponse, 0, len(result.Lines))
	for _, line := range result.Lines {
		allocations := make([]allocationResponse, 0, len(line.Allocations))
		for _, alloc := range line.Allocations {
			allocations = append(allocations, allocationResponse{
				BatchID:     alloc.BatchID,
				BatchNumber: alloc.BatchNumber,
				QtyTaken:    alloc.QtyTaken,
				ExpiresAt:   alloc.ExpiresAt,
			})
		}
		lines = append(lines, invoiceLineResponse{
			ProductID:      line.ProductID,
			Name:           line.Name,
			HSNCode:        line.HSNCode,
			Qty:            line.Qty,
			UnitPricePaise: line.UnitPricePaise,
			DiscountPaise:  line.DiscountPaise,
			TaxablePaise:   line.TaxablePaise,
			TaxPaise:       line.TaxPaise,
			TotalPaise:     line.TotalPaise,
			Allocations:    allocations,
		})
	}
	taxSummary := make([]taxLineResponse, 0, len(result.TaxSummary))
	for _, tl := range result.TaxSummary {
		taxSummary = append(taxSummary, taxLineResponse{
			Kind:        string(tl.Kind),
			RateBps:     tl.RateBps,
			AmountPaise: tl.AmountPaise,
		})
	}
	return checkoutResponse{
		InvoiceID:     result.InvoiceID,
		InvoiceNumber: result.InvoiceNumber,
		Sequence:      result.Sequence,
		SubtotalPaise: result.SubtotalPaise,
		DiscountPaise: result.DiscountPaise,
		TaxPaise:      result.TaxPaise,
		RoundOffPaise: result.RoundOffPaise,
		TotalPaise:    result.TotalPaise,
		Lines:         lines,
		TaxSummary:    taxSummary,
	}
}
