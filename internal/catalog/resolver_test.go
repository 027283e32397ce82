package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/medeva/pharmapos-backend/pkg/db/models"
	"github.com/medeva/pharmapos-backend/pkg/enums"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Barcode{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name, hsn string, active bool, barcodes ...models.Barcode) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Name:       name,
		HSNCode:    hsn,
		TaxRateBps: 1200,
		TaxMode:    enums.TaxModeExclusive,
		PricePaise: 10000,
		IsActive:   active,
	}
	for i := range barcodes {
		barcodes[i].ID = uuid.New()
		barcodes[i].TenantID = tenantID
		barcodes[i].ProductID = product.ID
	}
	product.Barcodes = barcodes
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return product
}

func TestClassifyScheme(t *testing.T) {
	t.Parallel()

	cases := map[string]enums.BarcodeScheme{
		"8901030865275": enums.BarcodeSchemeEAN13,
		"3004":          enums.BarcodeSchemeHSN,
		"300450":        enums.BarcodeSchemeHSN,
		"30045020":      enums.BarcodeSchemeHSN,
		"RX1042":        enums.BarcodeSchemeInternal,
		"rx7":           enums.BarcodeSchemeInternal,
		"paracetamol":   enums.BarcodeSchemeCustom,
		"30045":         enums.BarcodeSchemeCustom,
		"RX":            enums.BarcodeSchemeCustom,
	}
	for code, want := range cases {
		if got := ClassifyScheme(code); got != want {
			t.Fatalf("ClassifyScheme(%q) = %s, want %s", code, got, want)
		}
	}
}

func TestValidEAN13CheckDigit(t *testing.T) {
	t.Parallel()

	if !ValidEAN13CheckDigit("8901030865275") {
		t.Fatal("expected valid check digit")
	}
	if ValidEAN13CheckDigit("8901030865279") {
		t.Fatal("expected invalid check digit")
	}
	if ValidEAN13CheckDigit("12345") {
		t.Fatal("short code must not validate")
	}
}

func TestResolveExactBarcodeWins(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	resolver := NewResolver(NewRepository(db))

	want := seedProduct(t, db, tenantID, "Dolo 650", "3004", true,
		models.Barcode{Value: "8901030865275", Scheme: enums.BarcodeSchemeEAN13})
	seedProduct(t, db, tenantID, "Dolo 1000", "3004", true)

	got, err := resolver.Resolve(ctx, tenantID, "8901030865275")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("resolved wrong product: got %s want %s", got.ID, want.ID)
	}
}

func TestResolveIgnoresInactiveAndOtherTenants(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	resolver := NewResolver(NewRepository(db))

	seedProduct(t, db, tenantID, "Retired Syrup", "3004", false,
		models.Barcode{Value: "8901030865275", Scheme: enums.BarcodeSchemeEAN13})
	seedProduct(t, db, uuid.New(), "Other Tenant Syrup", "3004", true,
		models.Barcode{Value: "8901030865282", Scheme: enums.BarcodeSchemeEAN13})

	for _, code := range []string{"8901030865275", "8901030865282"} {
		_, err := resolver.Resolve(ctx, tenantID, code)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("code %s: expected not found, got %v", code, err)
		}
	}
}

func TestResolveHSNFallback(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	resolver := NewResolver(NewRepository(db))

	want := seedProduct(t, db, tenantID, "Amoxicillin 500", "30042011", true)

	got, err := resolver.Resolve(ctx, tenantID, "30042011")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("resolved wrong product: got %s want %s", got.ID, want.ID)
	}
}

func TestResolveHSNAmbiguousDoesNotFallThrough(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	resolver := NewResolver(NewRepository(db))

	// two products share the tariff code; one of them is also the unique
	// name-prefix match, which must NOT be consulted
	seedProduct(t, db, tenantID, "30042011 Special", "30042011", true)
	seedProduct(t, db, tenantID, "Amoxicillin 500", "30042011", true)

	_, err := resolver.Resolve(ctx, tenantID, "30042011")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on ambiguous tariff code, got %v", err)
	}
}

func TestResolveInternalCodeCaseInsensitive(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	resolver := NewResolver(NewRepository(db))

	want := seedProduct(t, db, tenantID, "Insulin Pen", "3004", true,
		models.Barcode{Value: "RX1042", Scheme: enums.BarcodeSchemeInternal})

	got, err := resolver.Resolve(ctx, tenantID, "rx1042")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("resolved wrong product: got %s want %s", got.ID, want.ID)
	}
}

func TestResolveNamePrefixUniqueOnly(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	resolver := NewResolver(NewRepository(db))

	want := seedProduct(t, db, tenantID, "Cetirizine 10mg", "3004", true)
	seedProduct(t, db, tenantID, "Paracetamol 500", "3004", true)
	seedProduct(t, db, tenantID, "Paracetamol 650", "3004", true)

	got, err := resolver.Resolve(ctx, tenantID, "ceti")
	if err != nil {
		t.Fatalf("resolve unique prefix: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("resolved wrong product: got %s want %s", got.ID, want.ID)
	}

	_, err = resolver.Resolve(ctx, tenantID, "para")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on ambiguous prefix, got %v", err)
	}
}

func TestResolveEAN13NoFallThrough(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	resolver := NewResolver(NewRepository(db))

	// product named after the digits would match a free-text search
	seedProduct(t, db, tenantID, "8901030865275 Promo Pack", "3004", true)

	_, err := resolver.Resolve(ctx, tenantID, "8901030865275")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unmatched EAN-13, got %v", err)
	}
}

func TestResolveMalformedInput(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	resolver := NewResolver(NewRepository(db))

	_, err := resolver.Resolve(ctx, uuid.New(), "   ")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("empty code: expected validation error, got %v", err)
	}

	_, err = resolver.Resolve(ctx, uuid.New(), "8901030865279")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("bad check digit: expected validation error, got %v", err)
	}
}
