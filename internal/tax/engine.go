package tax

import (
	"github.com/shopspring/decimal"

	"github.com/medeva/pharmapos-backend/pkg/enums"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
)

// LineInput carries everything needed to tax one cart line. All monetary
// amounts are integer paise.
type LineInput struct {
	UnitPricePaise  int64
	Qty             int
	DiscountPaise   int64
	TaxRateBps      int
	Mode            enums.TaxMode
	SellerStateCode string
	BuyerStateCode  string
}

// Component is one levy within a computed tax line.
type Component struct {
	Kind        enums.TaxComponentKind
	RateBps     int
	AmountPaise int64
}

// LineResult is the deterministic output of ComputeLine.
type LineResult struct {
	GrossPaise     int64
	TaxablePaise   int64
	TotalTaxPaise  int64
	LineTotalPaise int64
	Components     []Component
}

var bpsDivisor = decimal.NewFromInt(10000)

// ComputeLine runs the GST math for a single line. State codes are validated
// before any arithmetic; money never touches floating point.
func ComputeLine(in LineInput) (*LineResult, error) {
	if in.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if in.UnitPricePaise < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	if in.DiscountPaise < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must not be negative")
	}
	if in.TaxRateBps < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must not be negative")
	}
	if !in.Mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown tax mode")
	}
	if err := ValidateStateCode("seller", in.SellerStateCode); err != nil {
		return nil, err
	}
	if err := ValidateStateCode("buyer", in.BuyerStateCode); err != nil {
		return nil, err
	}

	gross := in.UnitPricePaise*int64(in.Qty) - in.DiscountPaise
	if gross < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds line value")
	}

	rate := decimal.NewFromInt(int64(in.TaxRateBps)).Div(bpsDivisor)

	var taxable int64
	if in.Mode == enums.TaxModeInclusive {
		// back the tax out: taxable = round(gross / (1 + r))
		taxable = decimal.NewFromInt(gross).
			Div(decimal.NewFromInt(1).Add(rate)).
			Round(0).
			IntPart()
	} else {
		taxable = gross
	}

	// round-half-up at paise precision
	totalTax := decimal.NewFromInt(taxable).Mul(rate).Round(0).IntPart()

	var lineTotal int64
	if in.Mode == enums.TaxModeInclusive {
		lineTotal = taxable + totalTax
	} else {
		lineTotal = gross + totalTax
	}

	result := &LineResult{
		GrossPaise:     gross,
		TaxablePaise:   taxable,
		TotalTaxPaise:  totalTax,
		LineTotalPaise: lineTotal,
		Components:     splitComponents(in.SellerStateCode, in.BuyerStateCode, in.TaxRateBps, totalTax),
	}
	return result, nil
}

// splitComponents applies the jurisdiction rule: intra-state supplies report
// two co-equal levies, inter-state a single combined one. The numeric total is
// identical either way. Odd paise land on the CGST half.
func splitComponents(sellerState, buyerState string, rateBps int, totalTax int64) []Component {
	if sellerState != buyerState {
		return []Component{
			{Kind: enums.TaxComponentIGST, RateBps: rateBps, AmountPaise: totalTax},
		}
	}
	cgst := (totalTax + 1) / 2
	sgst := totalTax - cgst
	return []Component{
		{Kind: enums.TaxComponentCGST, RateBps: rateBps / 2, AmountPaise: cgst},
		{Kind: enums.TaxComponentSGST, RateBps: rateBps / 2, AmountPaise: sgst},
	}
}
