package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medeva/pharmapos-backend/api/responses"
	"github.com/medeva/pharmapos-backend/api/validators"
	"github.com/medeva/pharmapos-backend/internal/catalog"
	"github.com/medeva/pharmapos-backend/pkg/db/models"
	"github.com/medeva/pharmapos-backend/pkg/enums"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
	"github.com/medeva/pharmapos-backend/pkg/logger"
	"github.com/medeva/pharmapos-backend/pkg/pagination"
)

// ProductCreate registers a new SKU with its scannable codes.
func ProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body productCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), tenantID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

// ProductUpdate applies a partial mutation to an existing SKU.
func ProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body productUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), tenantID, productID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// ProductDeactivate retires a SKU from scanning without deleting history.
func ProductDeactivate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeactivateProduct(r.Context(), tenantID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// ProductGet fetches one SKU with its barcodes.
func ProductGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), tenantID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// ProductList pages through the tenant catalog.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
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

		products, nextCursor, err := svc.ListProducts(r.Context(), tenantID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productResponse, 0, len(products))
		for i := range products {
			items = append(items, newProductResponse(&products[i]))
		}

		responses.WriteSuccess(w, productListResponse{Items: items, NextCursor: nextCursor})
	}
}

// ProductResolve maps one scanned code to a product using the scheme rules.
func ProductResolve(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code := strings.TrimSpace(r.URL.Query().Get("code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query parameter required").WithDetails(map[string]any{"field": "code"}))
			return
		}

		product, err := svc.Resolve(r.Context(), tenantID, code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

type productBarcodeRequest struct {
	Value  string `json:"value" validate:"required,max=64"`
	Scheme string `json:"scheme" validate:"required"`
}

type productCreateRequest struct {
	Name        string                  `json:"name" validate:"required,max=255"`
	GenericName *string                 `json:"generic_name,omitempty" validate:"omitempty,max=255"`
	HSNCode     string                  `json:"hsn_code" validate:"required"`
	TaxRateBps  int                     `json:"tax_rate_bps" validate:"min=0,max=10000"`
	TaxMode     string                  `json:"tax_mode" validate:"required"`
	PricePaise  int64                   `json:"price_paise" validate:"min=0"`
	SearchTerms []string                `json:"search_terms,omitempty"`
	Barcodes    []productBarcodeRequest `json:"barcodes,omitempty" validate:"dive"`
}

func (req productCreateRequest) toInput() catalog.CreateProductInput {
	barcodes := make([]catalog.BarcodeInput, 0, len(req.Barcodes))
	for _, bc := range req.Barcodes {
		barcodes = append(barcodes, catalog.BarcodeInput{
			Value:  bc.Value,
			Scheme: enums.BarcodeScheme(strings.ToLower(strings.TrimSpace(bc.Scheme))),
		})
	}
	return catalog.CreateProductInput{
		Name:        req.Name,
		GenericName: req.GenericName,
		HSNCode:     req.HSNCode,
		TaxRateBps:  req.TaxRateBps,
		TaxMode:     enums.TaxMode(strings.ToLower(strings.TrimSpace(req.TaxMode))),
		PricePaise:  req.PricePaise,
		SearchTerms: req.SearchTerms,
		Barcodes:    barcodes,
	}
}

type productUpdateRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,max=255"`
	GenericName *string   `json:"generic_name,omitempty" validate:"omitempty,max=255"`
	HSNCode     *string   `json:"hsn_code,omitempty"`
	TaxRateBps  *int      `json:"tax_rate_bps,omitempty" validate:"omitempty,min=0,max=10000"`
	TaxMode     *string   `json:"tax_mode,omitempty"`
	PricePaise  *int64    `json:"price_paise,omitempty" validate:"omitempty,min=0"`
	SearchTerms *[]string `json:"search_terms,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

func (req productUpdateRequest) toInput() catalog.UpdateProductInput {
	input := catalog.UpdateProductInput{
		Name:        req.Name,
		GenericName: req.GenericName,
		HSNCode:     req.HSNCode,
		TaxRateBps:  req.TaxRateBps,
		PricePaise:  req.PricePaise,
		SearchTerms: req.SearchTerms,
		IsActive:    req.IsActive,
	}
	if req.TaxMode != nil {
		mode := enums.TaxMode(strings.ToLower(strings.TrimSpace(*req.TaxMode)))
		input.TaxMode = &mode
	}
	return input
}

type productListResponse struct {
	Items      []productResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type productResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	GenericName *string           `json:"generic_name,omitempty"`
	HSNCode     string            `json:"hsn_code"`
	TaxRateBps  int               `json:"tax_rate_bps"`
	TaxMode     string            `json:"tax_mode"`
	PricePaise  int64             `json:"price_paise"`
	SearchTerms []string          `json:"search_terms,omitempty"`
	IsActive    bool              `json:"is_active"`
	Barcodes    []barcodeResponse `json:"barcodes,omitempty"`
}

type barcodeResponse struct {
	Value  string `json:"value"`
	Scheme string `json:"scheme"`
}

func newProductResponse(product *models.Product) productResponse {
	if product == nil {
		return productResponse{}
	}
	barcodes := make([]barcodeResponse, 0, len(product.Barcodes))
	for _, bc := range product.Barcodes {
		barcodes = append(barcodes, barcodeResponse{Value: bc.Value, Scheme: string(bc.Scheme)})
	}
	return productResponse{
		ID:          product.ID,
		Name:        product.Name,
		GenericName: product.GenericName,
		HSNCode:     product.HSNCode,
		TaxRateBps:  product.TaxRateBps,
		TaxMode:     string(product.TaxMode),
		PricePaise:  product.PricePaise,
		SearchTerms: product.SearchTerms,
		IsActive:    product.IsActive,
		Barcodes:    barcodes,
	}
}
