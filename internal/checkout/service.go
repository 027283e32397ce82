package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/medeva/pharmapos-backend/internal/catalog"
	"github.com/medeva/pharmapos-backend/internal/inventory"
	"github.com/medeva/pharmapos-backend/internal/invoices"
	"github.com/medeva/pharmapos-backend/internal/tax"
	"github.com/medeva/pharmapos-backend/pkg/config"
	"github.com/medeva/pharmapos-backend/pkg/db"
	"github.com/medeva/pharmapos-backend/pkg/db/models"
	"github.com/medeva/pharmapos-backend/pkg/enums"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
	"github.com/medeva/pharmapos-backend/pkg/logger"
	"github.com/medeva/pharmapos-backend/pkg/metrics"
)

// Checkout steps, recorded on failures so the till can tell a scan problem
// from a stock problem.
const (
	StepResolving  = "resolving"
	StepAllocating = "allocating"
	StepTaxing     = "taxing"
	StepSequencing = "sequencing"
	StepCommitting = "committing"
)

// Line is one scanned cart entry.
type Line struct {
	ScannedCode            string
	Qty                    int
	UnitPriceOverridePaise *int64
	DiscountPaise          int64
}

// Request is a complete checkout submission. Everything computes and persists
// in one transaction; a failure at any step leaves no trace.
type Request struct {
	TenantID       uuid.UUID
	BranchID       uuid.UUID
	TaxIdentityID  uuid.UUID
	BuyerStateCode string
	Lines          []Line

	// AllowNegativeStock overrides the configured default when set.
	AllowNegativeStock *bool
}

// Result is the committed checkout's summary.
type Result struct {
	InvoiceID     uuid.UUID
	InvoiceNumber string
	Sequence      int64
	Lines         []models.InvoiceLine
	TaxSummary    []models.InvoiceTaxLine
	SubtotalPaise int64
	DiscountPaise int64
	TaxPaise      int64
	RoundOffPaise int64
	TotalPaise    int64
}

// Service runs checkouts.
type Service interface {
	Checkout(ctx context.Context, req Request) (*Result, error)
}

type service struct {
	dbClient    *db.Client
	catalogRepo *catalog.Repository
	invoiceRepo *invoices.Repository
	allocator   *inventory.Allocator
	sequencer   *invoices.Sequencer
	cfg         config.CheckoutConfig
	checkoutM   *metrics.CheckoutMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs the checkout orchestrator.
func NewService(
	dbClient *db.Client,
	catalogRepo *catalog.Repository,
	invoiceRepo *invoices.Repository,
	cfg config.CheckoutConfig,
	checkoutM *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if invoiceRepo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if checkoutM == nil {
		checkoutM = metrics.NewCheckoutMetrics(nil)
	}
	svc := &service{
		dbClient:    dbClient,
		catalogRepo: catalogRepo,
		invoiceRepo: invoiceRepo,
		sequencer:   invoices.NewSequencer(cfg.InvoicePadWidth),
		cfg:         cfg,
		checkoutM:   checkoutM,
		logg:        logg,
		now:         time.Now,
	}
	svc.allocator = inventory.NewAllocator(cfg, checkoutM.IncAllocationConflict)
	return svc, nil
}

// Checkout validates the cart, then resolves, allocates, taxes, sequences,
// and persists inside one transaction.
func (s *service) Checkout(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	if err := validateRequest(req); err != nil {
		s.checkoutM.ObserveDuration("failed", time.Since(started))
		s.checkoutM.IncFailed(string(pkgerrors.CodeValidation))
		return nil, err
	}

	var result *Result
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		committed, err := s.runSteps(ctx, tx, req)
		if err != nil {
			return err
		}
		result = committed
		return nil
	})
	if err != nil {
		code := pkgerrors.CodeInternal
		if typed := pkgerrors.As(err); typed != nil {
			code = typed.Code()
		}
		s.checkoutM.ObserveDuration("failed", time.Since(started))
		s.checkoutM.IncFailed(string(code))
		if s.logg != nil {
			s.logg.Error(ctx, "checkout failed", err)
		}
		return nil, err
	}

	s.checkoutM.ObserveDuration("committed", time.Since(started))
	s.checkoutM.IncCommitted()
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "invoice_number", result.InvoiceNumber), "checkout committed")
	}
	return result, nil
}

func (s *service) runSteps(ctx context.Context, tx *gorm.DB, req Request) (*Result, error) {
	invoiceRepo := s.invoiceRepo.WithTx(tx)

	identity, err := invoiceRepo.FindTaxIdentity(ctx, req.TenantID, req.TaxIdentityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tax identity not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load tax identity")
	}

	allowNegative := s.cfg.AllowNegativeStock
	if req.AllowNegativeStock != nil {
		allowNegative = *req.AllowNegativeStock
	}

	resolver := catalog.NewResolver(s.catalogRepo.WithTx(tx))

	var (
		lines         []models.InvoiceLine
		subtotal      int64
		totalDiscount int64
		totalTax      int64
		grand         int64
	)
	components := map[componentKey]*models.InvoiceTaxLine{}
	var componentOrder []componentKey

	for i, line := range req.Lines {
		product, err := resolver.Resolve(ctx, req.TenantID, line.ScannedCode)
		if err != nil {
			return nil, failAt(StepResolving, err, map[string]any{"line": i, "code": line.ScannedCode})
		}

		plan, err := s.allocator.Allocate(ctx, tx, inventory.AllocationRequest{
			TenantID:      req.TenantID,
			BranchID:      req.BranchID,
			ProductID:     product.ID,
			Qty:           line.Qty,
			AllowNegative: allowNegative,
		})
		if err != nil {
			return nil, failAt(StepAllocating, err, map[string]any{"line": i, "product_id": product.ID})
		}

		unitPrice := product.PricePaise
		if line.UnitPriceOverridePaise != nil {
			unitPrice = *line.UnitPriceOverridePaise
		}

		taxed, err := tax.ComputeLine(tax.LineInput{
			UnitPricePaise:  unitPrice,
			Qty:             line.Qty,
			DiscountPaise:   line.DiscountPaise,
			TaxRateBps:      product.TaxRateBps,
			Mode:            product.TaxMode,
			SellerStateCode: identity.StateCode,
			BuyerStateCode:  req.BuyerStateCode,
		})
		if err != nil {
			return nil, failAt(StepTaxing, err, map[string]any{"line": i, "product_id": product.ID})
		}

		allocations := make([]models.BatchAllocation, 0, len(plan.Allocations))
		for _, a := range plan.Allocations {
			allocations = append(allocations, models.BatchAllocation{
				BatchID:     a.BatchID,
				BatchNumber: a.BatchNumber,
				QtyTaken:    a.QtyTaken,
				ExpiresAt:   a.ExpiresAt,
			})
		}

		lines = append(lines, models.InvoiceLine{
			ProductID:      product.ID,
			Name:           product.Name,
			HSNCode:        product.HSNCode,
			Qty:            line.Qty,
			UnitPricePaise: unitPrice,
			DiscountPaise:  line.DiscountPaise,
			TaxablePaise:   taxed.TaxablePaise,
			TaxPaise:       taxed.TotalTaxPaise,
			TotalPaise:     taxed.LineTotalPaise,
			TaxRateBps:     product.TaxRateBps,
			TaxMode:        product.TaxMode,
			Allocations:    allocations,
		})

		subtotal += taxed.TaxablePaise
		totalDiscount += line.DiscountPaise
		totalTax += taxed.TotalTaxPaise
		grand += taxed.LineTotalPaise

		for _, c := range taxed.Components {
			key := componentKey{Kind: c.Kind, RateBps: c.RateBps}
			agg, ok := components[key]
			if !ok {
				agg = &models.InvoiceTaxLine{Kind: c.Kind, RateBps: c.RateBps}
				components[key] = agg
				componentOrder = append(componentOrder, key)
			}
			agg.AmountPaise += c.AmountPaise
		}
	}

	rounded := tax.RoundToWholeRupee(grand)

	issued, err := s.sequencer.Next(ctx, tx, identity.ID, s.now())
	if err != nil {
		return nil, failAt(StepSequencing, err, nil)
	}

	taxLines := make([]models.InvoiceTaxLine, 0, len(componentOrder))
	for _, key := range componentOrder {
		taxLines = append(taxLines, *components[key])
	}

	invoice := &models.Invoice{
		TenantID:       req.TenantID,
		BranchID:       req.BranchID,
		TaxIdentityID:  identity.ID,
		Number:         issued.Number,
		Sequence:       issued.Sequence,
		BuyerStateCode: req.BuyerStateCode,
		SubtotalPaise:  subtotal,
		DiscountPaise:  totalDiscount,
		TaxPaise:       totalTax,
		RoundOffPaise:  rounded.AdjustmentPaise,
		TotalPaise:     rounded.RoundedPaise,
		Lines:          lines,
		TaxLines:       taxLines,
	}
	if _, err := invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, failAt(StepCommitting,
			pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert invoice"), nil)
	}

	return &Result{
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.Number,
		Sequence:      invoice.Sequence,
		Lines:         invoice.Lines,
		TaxSummary:    invoice.TaxLines,
		SubtotalPaise: invoice.SubtotalPaise,
		DiscountPaise: invoice.DiscountPaise,
		TaxPaise:      invoice.TaxPaise,
		RoundOffPaise: invoice.RoundOffPaise,
		TotalPaise:    invoice.TotalPaise,
	}, nil
}

type componentKey struct {
	Kind    enums.TaxComponentKind
	RateBps int
}

func validateRequest(req Request) error {
	var errs error
	if req.TenantID == uuid.Nil {
		errs = multierr.Append(errs, fmt.Errorf("tenant_id required"))
	}
	if req.BranchID == uuid.Nil {
		errs = multierr.Append(errs, fmt.Errorf("branch_id required"))
	}
	if req.TaxIdentityID == uuid.Nil {
		errs = multierr.Append(errs, fmt.Errorf("tax_identity_id required"))
	}
	if err := tax.ValidateStateCode("buyer", req.BuyerStateCode); err != nil {
		errs = multierr.Append(errs, err)
	}
	if len(req.Lines) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("at least one line required"))
	}
	for i, line := range req.Lines {
		if line.ScannedCode == "" {
			errs = multierr.Append(errs, fmt.Errorf("line %d: scanned_code required", i))
		}
		if line.Qty <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("line %d: quantity must be positive", i))
		}
		if line.DiscountPaise < 0 {
			errs = multierr.Append(errs, fmt.Errorf("line %d: discount must not be negative", i))
		}
		if line.UnitPriceOverridePaise != nil && *line.UnitPriceOverridePaise < 0 {
			errs = multierr.Append(errs, fmt.Errorf("line %d: price override must not be negative", i))
		}
	}
	if errs == nil {
		return nil
	}

	details := make([]string, 0)
	for _, err := range multierr.Errors(errs) {
		details = append(details, err.Error())
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout request").
		WithDetails(map[string]any{"errors": details})
}

// failAt tags a step error with where the state machine stopped.
func failAt(step string, err error, extra map[string]any) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout step failed")
	}
	details := map[string]any{"step": step}
	for k, v := range extra {
		details[k] = v
	}
	if existing, ok := typed.Details().(map[string]any); ok {
		for k, v := range existing {
			details[k] = v
		}
	}
	return typed.WithDetails(details)
}
