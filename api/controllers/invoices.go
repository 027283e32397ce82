package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medeva/pharmapos-backend/api/responses"
	"github.com/medeva/pharmapos-backend/api/validators"
	"github.com/medeva/pharmapos-backend/internal/invoices"
	"github.com/medeva/pharmapos-backend/pkg/db/models"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
	"github.com/medeva/pharmapos-backend/pkg/logger"
	"github.com/medeva/pharmapos-backend/pkg/pagination"
)

// InvoiceLookup fetches one invoice by its printed number. The number contains
// slashes, so it travels as a query parameter rather than a path segment.
func InvoiceLookup(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		number := strings.TrimSpace(r.URL.Query().Get("number"))
		if number == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query parameter required").WithDetails(map[string]any{"field": "number"}))
			return
		}

		invoice, err := svc.GetByNumber(r.Context(), tenantID, number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newInvoiceResponse(invoice))
	}
}

// InvoiceList pages through the tenant's committed invoices, newest first.
func InvoiceList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, nextCursor, err := svc.List(r.Context(), tenantID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]invoiceResponse, 0, len(rows))
		for i := range rows {
			items = append(items, newInvoiceResponse(&rows[i]))
		}
		responses.WriteSuccess(w, invoiceListResponse{Items: items, NextCursor: nextCursor})
	}
}

// TaxIdentityCreate registers a GST registration for invoicing.
func TaxIdentityCreate(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoices service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body taxIdentityCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity, err := svc.CreateTaxIdentity(r.Context(), tenantID, invoices.CreateTaxIdentityInput{
			GSTIN:         body.GSTIN,
			InvoicePrefix: body.InvoicePrefix,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newTaxIdentityResponse(identity))
	}
}

type taxIdentityCreateRequest struct {
	GSTIN         string `json:"gstin" validate:"required,len=15"`
	InvoicePrefix string `json:"invoice_prefix" validate:"required,max=16"`
}

type taxIdentityResponse struct {
	ID            uuid.UUID `json:"id"`
	GSTIN         string    `json:"gstin"`
	StateCode     string    `json:"state_code"`
	InvoicePrefix string    `json:"invoice_prefix"`
}

func newTaxIdentityResponse(identity *models.TaxIdentity) taxIdentityResponse {
	if identity == nil {
		return taxIdentityResponse{}
	}
	return taxIdentityResponse{
		ID:            identity.ID,
		GSTIN:         identity.GSTIN,
		StateCode:     identity.StateCode,
		InvoicePrefix: identity.InvoicePrefix,
	}
}

type invoiceListResponse struct {
	Items      []invoiceResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type invoiceResponse struct {
	ID             uuid.UUID             `json:"id"`
	Number         string                `json:"number"`
	Sequence       int64                 `json:"sequence"`
	BuyerStateCode string                `json:"buyer_state_code"`
	SubtotalPaise  int64                 `json:"subtotal_paise"`
	DiscountPaise  int64                 `json:"discount_paise"`
	TaxPaise       int64                 `json:"tax_paise"`
	RoundOffPaise  int64                 `json:"round_off_paise"`
	TotalPaise     int64                 `json:"total_paise"`
	Lines          []invoiceLineResponse `json:"lines,omitempty"`
	TaxLines       []taxLineResponse     `json:"tax_lines,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

type invoiceLineResponse struct {
	ProductID      uuid.UUID            `json:"product_id"`
	Name           string               `json:"name"`
	HSNCode        string               `json:"hsn_code"`
	Qty            int                  `json:"qty"`
	UnitPricePaise int64                `json:"unit_price_paise"`
	DiscountPaise  int64                `json:"discount_paise"`
	TaxablePaise   int64                `json:"taxable_paise"`
	TaxPaise       int64                `json:"tax_paise"`
	TotalPaise     int64                `json:"total_paise"`
	Allocations    []allocationResponse `json:"allocations,omitempty"`
}

type allocationResponse struct {
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber string    `json:"batch_number"`
	QtyTaken    int       `json:"qty_taken"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type taxLineResponse struct {
	Kind        string `json:"kind"`
	RateBps     int    `json:"rate_bps"`
	AmountPaise int64  `json:"amount_paise"`
}

func newInvoiceResponse(invoice *models.Invoice) invoiceResponse {
	if invoice == nil {
		return invoiceResponse{}
	}
	lines := make([]invoiceLineResponse, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
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
	taxLines := make([]taxLineResponse, 0, len(invoice.TaxLines))
	for _, tl := range invoice.TaxLines {
		taxLines = append(taxLines, taxLineResponse{
			Kind:        string(tl.Kind),
			RateBps:     tl.RateBps,
			AmountPaise: tl.AmountPaise,
		})
	}
	return invoiceResponse{
		ID:             invoice.ID,
		Number:         invoice.Number,
		Sequence:       invoice.Sequence,
		BuyerStateCode: invoice.BuyerStateCode,
		SubtotalPaise:  invoice.SubtotalPaise,
		DiscountPaise:  invoice.DiscountPaise,
		TaxPaise:       invoice.TaxPaise,
		RoundOffPaise:  invoice.RoundOffPaise,
		TotalPaise:     invoice.TotalPaise,
		Lines:          lines,
		TaxLines:       taxLines,
		CreatedAt:      invoice.CreatedAt,
	}
}
