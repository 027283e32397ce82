package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/medeva/pharmapos-backend/pkg/db"
	"github.com/medeva/pharmapos-backend/pkg/db/models"
	"github.com/medeva/pharmapos-backend/pkg/enums"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
	"github.com/medeva/pharmapos-backend/pkg/pagination"
)

// Service exposes product master management and code resolution.
type Service interface {
	CreateProduct(ctx context.Context, tenantID uuid.UUID, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeactivateProduct(ctx context.Context, tenantID, productID uuid.UUID) error
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID, params pagination.Params) ([]models.Product, string, error)
	Resolve(ctx context.Context, tenantID uuid.UUID, code string) (*models.Product, error)
}

// BarcodeInput attaches one scannable code during create/update.
type BarcodeInput struct {
	Value  string
	Scheme enums.BarcodeScheme
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	GenericName *string
	HSNCode     string
	TaxRateBps  int
	TaxMode     enums.TaxMode
	PricePaise  int64
	SearchTerms []string
	Barcodes    []BarcodeInput
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string
	GenericName *string
	HSNCode     *string
	TaxRateBps  *int
	TaxMode     *enums.TaxMode
	PricePaise  *int64
	SearchTerms *[]string
	IsActive    *bool
}

type service struct {
	repo     *Repository
	resolver *Resolver
	dbClient *db.Client
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:     repo,
		resolver: NewResolver(repo),
		dbClient: dbClient,
	}, nil
}

// CreateProduct validates and inserts the product with its barcodes.
func (s *service) CreateProduct(ctx context.Context, tenantID uuid.UUID, input CreateProductInput) (*models.Product, error) {
	if err := validateProductFields(input.Name, input.HSNCode, input.TaxRateBps, input.TaxMode, input.PricePaise); err != nil {
		return nil, err
	}
	barcodes, err := buildBarcodes(tenantID, input.Barcodes)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		TenantID:    tenantID,
		Name:        strings.TrimSpace(input.Name),
		GenericName: input.GenericName,
		HSNCode:     input.HSNCode,
		TaxRateBps:  input.TaxRateBps,
		TaxMode:     input.TaxMode,
		PricePaise:  input.PricePaise,
		SearchTerms: pq.StringArray(input.SearchTerms),
		IsActive:    true,
		Barcodes:    barcodes,
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateProduct(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "uq_barcodes_tenant_value") {
				return pkgerrors.New(pkgerrors.CodeConflict, "barcode value already attached to another product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, tenantID, product.ID)
}

// UpdateProduct applies the provided mutations to an existing product.
func (s *service) UpdateProduct(ctx context.Context, tenantID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.GenericName != nil {
		product.GenericName = input.GenericName
	}
	if input.HSNCode != nil {
		product.HSNCode = *input.HSNCode
	}
	if input.TaxRateBps != nil {
		product.TaxRateBps = *input.TaxRateBps
	}
	if input.TaxMode != nil {
		product.TaxMode = *input.TaxMode
	}
	if input.PricePaise != nil {
		product.PricePaise = *input.PricePaise
	}
	if input.SearchTerms != nil {
		product.SearchTerms = pq.StringArray(*input.SearchTerms)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := validateProductFields(product.Name, product.HSNCode, product.TaxRateBps, product.TaxMode, product.PricePaise); err != nil {
		return nil, err
	}

	if _, err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return product, nil
}

// DeactivateProduct retires a product from sale.
func (s *service) DeactivateProduct(ctx context.Context, tenantID, productID uuid.UUID) error {
	if err := s.repo.DeactivateProduct(ctx, tenantID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate product")
	}
	return nil
}

// GetProduct loads one product with barcodes.
func (s *service) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, tenantID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
}

// ListProducts pages through a tenant's products.
func (s *service) ListProducts(ctx context.Context, tenantID uuid.UUID, params pagination.Params) ([]models.Product, string, error) {
	rows, next, err := s.repo.ListProducts(ctx, tenantID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return rows, next, nil
}

// Resolve maps a scanned code to a product.
func (s *service) Resolve(ctx context.Context, tenantID uuid.UUID, code string) (*models.Product, error) {
	return s.resolver.Resolve(ctx, tenantID, code)
}

func validateProductFields(name, hsn string, rateBps int, mode enums.TaxMode, pricePaise int64) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if !hsnPattern.MatchString(hsn) {
		return pkgerrors.New(pkgerrors.CodeValidation, "hsn code must be 4, 6, or 8 digits")
	}
	if rateBps < 0 || rateBps > 10000 {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax rate out of range")
	}
	if !mode.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown tax mode")
	}
	if pricePaise < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	return nil
}

func buildBarcodes(tenantID uuid.UUID, inputs []BarcodeInput) ([]models.Barcode, error) {
	seen := make(map[string]struct{}, len(inputs))
	barcodes := make([]models.Barcode, 0, len(inputs))
	for _, in := range inputs {
		value := strings.TrimSpace(in.Value)
		if value == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode value required")
		}
		if !in.Scheme.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown barcode scheme")
		}
		if in.Scheme == enums.BarcodeSchemeEAN13 && !ValidEAN13CheckDigit(value) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid EAN-13 check digit").
				WithDetails(map[string]any{"value": value})
		}
		if _, dup := seen[value]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate barcode value in request")
		}
		seen[value] = struct{}{}
		barcodes = append(barcodes, models.Barcode{
			TenantID: tenantID,
			Value:    value,
			Scheme:   in.Scheme,
		})
	}
	return barcodes, nil
}
