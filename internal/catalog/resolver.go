package catalog

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medeva/pharmapos-backend/pkg/db/models"
	"github.com/medeva/pharmapos-backend/pkg/enums"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
)

var (
	ean13Pattern    = regexp.MustCompile(`^\d{13}$`)
	hsnPattern      = regexp.MustCompile(`^(\d{4}|\d{6}|\d{8})$`)
	internalPattern = regexp.MustCompile(`^(?i)RX\d+$`)
)

// Resolver maps an arbitrary scanned string to a product. Schemes are tried
// in priority order and the first positive classification wins: a code that
// looks like a tariff code but matches nothing is a miss, not a cue to fall
// back to free-text search. Cross-scheme fallthrough produced wrong-item
// sales at the counter.
type Resolver struct {
	lookup LookupRepository
}

// NewResolver builds a resolver over the given lookup repository.
func NewResolver(lookup LookupRepository) *Resolver {
	return &Resolver{lookup: lookup}
}

// ClassifyScheme reports which barcode scheme a raw code falls under.
func ClassifyScheme(code string) enums.BarcodeScheme {
	switch {
	case ean13Pattern.MatchString(code):
		return enums.BarcodeSchemeEAN13
	case hsnPattern.MatchString(code):
		return enums.BarcodeSchemeHSN
	case internalPattern.MatchString(code):
		return enums.BarcodeSchemeInternal
	default:
		return enums.BarcodeSchemeCustom
	}
}

// ValidEAN13CheckDigit verifies the trailing check digit of a 13-digit code.
func ValidEAN13CheckDigit(code string) bool {
	if !ean13Pattern.MatchString(code) {
		return false
	}
	var sum int
	for i := 0; i < 12; i++ {
		digit := int(code[i] - '0')
		if i%2 == 1 {
			digit *= 3
		}
		sum += digit
	}
	check := (10 - sum%10) % 10
	return check == int(code[12]-'0')
}

// Resolve looks a scanned code up for the tenant. Pure lookup; the only
// error classes are validation (malformed input) and not-found.
func (r *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID, code string) (*models.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scanned code must not be empty")
	}

	product, err := r.lookup.FindByBarcodeValue(ctx, tenantID, code)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "barcode lookup failed")
	}

	switch ClassifyScheme(code) {
	case enums.BarcodeSchemeEAN13:
		if !ValidEAN13CheckDigit(code) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid EAN-13 check digit").
				WithDetails(map[string]any{"code": code})
		}
		return nil, notResolved(code)

	case enums.BarcodeSchemeHSN:
		rows, err := r.lookup.FindByHSNCode(ctx, tenantID, code)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "tariff code lookup failed")
		}
		if len(rows) != 1 {
			// zero or ambiguous: the scheme matched, so stop here
			return nil, notResolved(code)
		}
		return &rows[0], nil

	case enums.BarcodeSchemeInternal:
		product, err := r.lookup.FindByInternalCode(ctx, tenantID, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notResolved(code)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "internal code lookup failed")
		}
		return product, nil

	default:
		rows, err := r.lookup.FindByNamePrefix(ctx, tenantID, code, 2)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "name lookup failed")
		}
		if len(rows) != 1 {
			return nil, notResolved(code)
		}
		return &rows[0], nil
	}
}

func notResolved(code string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "no product matches scanned code").
		WithDetails(map[string]any{"code": code})
}
