package invoices

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medeva/pharmapos-backend/internal/tax"
	"github.com/medeva/pharmapos-backend/pkg/db"
	"github.com/medeva/pharmapos-backend/pkg/db/models"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
	"github.com/medeva/pharmapos-backend/pkg/pagination"
)

var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z]$`)

// Service exposes invoice reads and registration management.
type Service interface {
	GetByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*models.Invoice, error)
	List(ctx context.Context, tenantID uuid.UUID, params pagination.Params) ([]models.Invoice, string, error)
	CreateTaxIdentity(ctx context.Context, tenantID uuid.UUID, input CreateTaxIdentityInput) (*models.TaxIdentity, error)
}

// CreateTaxIdentityInput holds the payload to register a GST registration.
type CreateTaxIdentityInput struct {
	GSTIN         string
	InvoicePrefix string
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs an invoices service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

// GetByNumber loads a fully hydrated invoice by its printed number.
func (s *service) GetByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*models.Invoice, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number required")
	}
	invoice, err := s.repo.FindByNumber(ctx, tenantID, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load invoice")
	}
	return invoice, nil
}

// List pages through a tenant's invoices.
func (s *service) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params) ([]models.Invoice, string, error) {
	rows, next, err := s.repo.List(ctx, tenantID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list invoices")
	}
	return rows, next, nil
}

// CreateTaxIdentity validates and registers a GST registration. The state
// code is taken from the GSTIN's first two digits.
func (s *service) CreateTaxIdentity(ctx context.Context, tenantID uuid.UUID, input CreateTaxIdentityInput) (*models.TaxIdentity, error) {
	gstin := strings.ToUpper(strings.TrimSpace(input.GSTIN))
	if !gstinPattern.MatchString(gstin) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed gstin")
	}
	stateCode := gstin[:2]
	if !tax.ValidStateCode(stateCode) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gstin carries an unknown state code").
			WithDetails(map[string]any{"state_code": stateCode})
	}
	prefix := strings.TrimSpace(input.InvoicePrefix)
	if prefix == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice prefix required")
	}

	identity := &models.TaxIdentity{
		TenantID:      tenantID,
		GSTIN:         gstin,
		StateCode:     stateCode,
		InvoicePrefix: prefix,
	}
	if _, err := s.repo.CreateTaxIdentity(ctx, identity); err != nil {
		if db.IsUniqueViolation(err, "uq_tax_identities_gstin") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "gstin already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert tax identity")
	}
	return identity, nil
}
