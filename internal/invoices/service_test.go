package invoices

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/medeva/pharmapos-backend/pkg/db"
	"github.com/medeva/pharmapos-backend/pkg/db/models"
	"github.com/medeva/pharmapos-backend/pkg/enums"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
	"github.com/medeva/pharmapos-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	conn := newTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, db.NewFromGorm(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestCreateTaxIdentity(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	identity, err := svc.CreateTaxIdentity(ctx, tenantID, CreateTaxIdentityInput{
		GSTIN:         "27abcde1234f1z5",
		InvoicePrefix: "MED",
	})
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	if identity.GSTIN != "27ABCDE1234F1Z5" {
		t.Fatalf("gstin not normalized: %q", identity.GSTIN)
	}
	if identity.StateCode != "27" {
		t.Fatalf("state code %q, want 27", identity.StateCode)
	}
	if identity.InvoiceCounter != 0 || identity.FYCounter != 0 {
		t.Fatalf("counters must start at zero: %+v", identity)
	}
}

func TestCreateTaxIdentityValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]CreateTaxIdentityInput{
		"malformed gstin":    {GSTIN: "not-a-gstin", InvoicePrefix: "MED"},
		"unknown state code": {GSTIN: "99ABCDE1234F1Z5", InvoicePrefix: "MED"},
		"missing prefix":     {GSTIN: "27ABCDE1234F1Z5", InvoicePrefix: " "},
	}
	for name, input := range cases {
		_, err := svc.CreateTaxIdentity(ctx, uuid.New(), input)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestGetByNumber(t *testing.T) {
	t.Parallel()

	svc, repo := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	seeded := &models.Invoice{
		TenantID:       tenantID,
		BranchID:       uuid.New(),
		TaxIdentityID:  uuid.New(),
		Number:         "MED/25-26/0001",
		Sequence:       1,
		BuyerStateCode: "27",
		SubtotalPaise:  20000,
		TaxPaise:       2400,
		TotalPaise:     22400,
		Lines: []models.InvoiceLine{{
			ProductID:      uuid.New(),
			Name:           "Dolo 650",
			HSNCode:        "3004",
			Qty:            2,
			UnitPricePaise: 10000,
			TaxablePaise:   20000,
			TaxPaise:       2400,
			TotalPaise:     22400,
			TaxRateBps:     1200,
			TaxMode:        enums.TaxModeExclusive,
			Allocations: []models.BatchAllocation{{
				BatchID:     uuid.New(),
				BatchNumber: "B1",
				QtyTaken:    2,
			}},
		}},
		TaxLines: []models.InvoiceTaxLine{
			{Kind: enums.TaxComponentCGST, RateBps: 600, AmountPaise: 1200},
			{Kind: enums.TaxComponentSGST, RateBps: 600, AmountPaise: 1200},
		},
	}
	if _, err := repo.Create(ctx, seeded); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	got, err := svc.GetByNumber(ctx, tenantID, "MED/25-26/0001")
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if len(got.Lines) != 1 || len(got.TaxLines) != 2 {
		t.Fatalf("invoice not hydrated: %d lines, %d tax lines", len(got.Lines), len(got.TaxLines))
	}
	if len(got.Lines[0].Allocations) != 1 {
		t.Fatalf("allocations not hydrated: %+v", got.Lines[0])
	}

	_, err = svc.GetByNumber(ctx, uuid.New(), "MED/25-26/0001")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("cross-tenant read must 404, got %v", err)
	}
}

func TestListInvoices(t *testing.T) {
	t.Parallel()

	svc, repo := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()

	for i := 1; i <= 3; i++ {
		if _, err := repo.Create(ctx, &models.Invoice{
			TenantID:       tenantID,
			BranchID:       uuid.New(),
			TaxIdentityID:  uuid.New(),
			Number:         FiscalYearLabel(2025) + "/" + uuid.NewString()[:8],
			Sequence:       int64(i),
			BuyerStateCode: "27",
			TotalPaise:     int64(i) * 100,
		}); err != nil {
			t.Fatalf("seed invoice %d: %v", i, err)
		}
	}

	rows, _, err := svc.List(ctx, tenantID, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 invoices, got %d", len(rows))
	}
}
