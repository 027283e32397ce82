package tax

import (
	"testing"

	"github.com/medeva/pharmapos-backend/pkg/enums"
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
)

func TestComputeLineExclusiveIntraState(t *testing.T) {
	t.Parallel()

	// qty 2 × ₹100.00 at 12% exclusive, same-state supply
	result, err := ComputeLine(LineInput{
		UnitPricePaise:  10000,
		Qty:             2,
		TaxRateBps:      1200,
		Mode:            enums.TaxModeExclusive,
		SellerStateCode: "27",
		BuyerStateCode:  "27",
	})
	if err != nil {
		t.Fatalf("compute line: %v", err)
	}
	if result.TaxablePaise != 20000 {
		t.Fatalf("expected taxable 20000, got %d", result.TaxablePaise)
	}
	if result.TotalTaxPaise != 2400 {
		t.Fatalf("expected tax 2400, got %d", result.TotalTaxPaise)
	}
	if result.LineTotalPaise != 22400 {
		t.Fatalf("expected line total 22400, got %d", result.LineTotalPaise)
	}
	if len(result.Components) != 2 {
		t.Fatalf("expected two components intra-state, got %d", len(result.Components))
	}
	if result.Components[0].Kind != enums.TaxComponentCGST || result.Components[0].AmountPaise != 1200 {
		t.Fatalf("unexpected cgst component %+v", result.Components[0])
	}
	if result.Components[1].Kind != enums.TaxComponentSGST || result.Components[1].AmountPaise != 1200 {
		t.Fatalf("unexpected sgst component %+v", result.Components[1])
	}
}

func TestComputeLineInclusiveBacksOutTax(t *testing.T) {
	t.Parallel()

	result, err := ComputeLine(LineInput{
		UnitPricePaise:  10000,
		Qty:             2,
		TaxRateBps:      1200,
		Mode:            enums.TaxModeInclusive,
		SellerStateCode: "27",
		BuyerStateCode:  "27",
	})
	if err != nil {
		t.Fatalf("compute line: %v", err)
	}
	if result.TaxablePaise != 17857 {
		t.Fatalf("expected taxable 17857, got %d", result.TaxablePaise)
	}
	if result.TotalTaxPaise != 2143 {
		t.Fatalf("expected tax 2143, got %d", result.TotalTaxPaise)
	}
	// inclusive line total must reproduce the gross value
	if result.LineTotalPaise != 20000 {
		t.Fatalf("expected line total 20000, got %d", result.LineTotalPaise)
	}
}

func TestComputeLineInterStateSingleComponent(t *testing.T) {
	t.Parallel()

	intra, err := ComputeLine(LineInput{
		UnitPricePaise:  33333,
		Qty:             3,
		DiscountPaise:   500,
		TaxRateBps:      1800,
		Mode:            enums.TaxModeExclusive,
		SellerStateCode: "29",
		BuyerStateCode:  "29",
	})
	if err != nil {
		t.Fatalf("intra: %v", err)
	}
	inter, err := ComputeLine(LineInput{
		UnitPricePaise:  33333,
		Qty:             3,
		DiscountPaise:   500,
		TaxRateBps:      1800,
		Mode:            enums.TaxModeExclusive,
		SellerStateCode: "29",
		BuyerStateCode:  "33",
	})
	if err != nil {
		t.Fatalf("inter: %v", err)
	}

	if len(inter.Components) != 1 || inter.Components[0].Kind != enums.TaxComponentIGST {
		t.Fatalf("expected single igst component, got %+v", inter.Components)
	}

	var intraSum int64
	for _, c := range intra.Components {
		intraSum += c.AmountPaise
	}
	// split presentation never changes the numeric total
	if intraSum != inter.Components[0].AmountPaise {
		t.Fatalf("intra split %d != inter total %d", intraSum, inter.Components[0].AmountPaise)
	}
	if intra.LineTotalPaise != inter.LineTotalPaise {
		t.Fatalf("line totals diverged: %d vs %d", intra.LineTotalPaise, inter.LineTotalPaise)
	}
}

func TestComputeLineOddTaxSplitsWithoutLosingAPaisa(t *testing.T) {
	t.Parallel()

	result, err := ComputeLine(LineInput{
		UnitPricePaise:  10001,
		Qty:             1,
		TaxRateBps:      500,
		Mode:            enums.TaxModeExclusive,
		SellerStateCode: "07",
		BuyerStateCode:  "07",
	})
	if err != nil {
		t.Fatalf("compute line: %v", err)
	}
	// 10001 * 5% = 500.05 -> 500, odd halves must still sum exactly
	if result.TotalTaxPaise != 500 {
		t.Fatalf("expected tax 500, got %d", result.TotalTaxPaise)
	}
	if got := result.Components[0].AmountPaise + result.Components[1].AmountPaise; got != result.TotalTaxPaise {
		t.Fatalf("components sum %d != total %d", got, result.TotalTaxPaise)
	}
	if result.Components[0].AmountPaise < result.Components[1].AmountPaise {
		t.Fatalf("odd paisa should land on the first half: %+v", result.Components)
	}
}

func TestComputeLineIsDeterministic(t *testing.T) {
	t.Parallel()

	in := LineInput{
		UnitPricePaise:  4999,
		Qty:             7,
		DiscountPaise:   350,
		TaxRateBps:      1200,
		Mode:            enums.TaxModeInclusive,
		SellerStateCode: "24",
		BuyerStateCode:  "06",
	}
	first, err := ComputeLine(in)
	if err != nil {
		t.Fatalf("first compute: %v", err)
	}
	second, err := ComputeLine(in)
	if err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if first.GrossPaise != second.GrossPaise || first.TaxablePaise != second.TaxablePaise {
		t.Fatalf("compute not deterministic: %+v vs %+v", first, second)
	}
	if first.TotalTaxPaise != second.TotalTaxPaise || first.LineTotalPaise != second.LineTotalPaise {
		t.Fatalf("compute not deterministic: %+v vs %+v", first, second)
	}
}

func TestComputeLineInclusiveRoundTripWithinOnePaisa(t *testing.T) {
	t.Parallel()

	for _, gross := range []int64{101, 999, 20000, 123457, 999999} {
		result, err := ComputeLine(LineInput{
			UnitPricePaise:  gross,
			Qty:             1,
			TaxRateBps:      1800,
			Mode:            enums.TaxModeInclusive,
			SellerStateCode: "27",
			BuyerStateCode:  "27",
		})
		if err != nil {
			t.Fatalf("gross %d: %v", gross, err)
		}
		diff := result.LineTotalPaise - gross
		if diff < -1 || diff > 1 {
			t.Fatalf("gross %d: round trip drifted by %d paise", gross, diff)
		}
	}
}

func TestComputeLineRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := map[string]LineInput{
		"zero qty":          {UnitPricePaise: 100, Qty: 0, TaxRateBps: 1200, Mode: enums.TaxModeExclusive, SellerStateCode: "27", BuyerStateCode: "27"},
		"negative price":    {UnitPricePaise: -1, Qty: 1, TaxRateBps: 1200, Mode: enums.TaxModeExclusive, SellerStateCode: "27", BuyerStateCode: "27"},
		"negative discount": {UnitPricePaise: 100, Qty: 1, DiscountPaise: -5, TaxRateBps: 1200, Mode: enums.TaxModeExclusive, SellerStateCode: "27", BuyerStateCode: "27"},
		"missing seller":    {UnitPricePaise: 100, Qty: 1, TaxRateBps: 1200, Mode: enums.TaxModeExclusive, BuyerStateCode: "27"},
		"unknown buyer":     {UnitPricePaise: 100, Qty: 1, TaxRateBps: 1200, Mode: enums.TaxModeExclusive, SellerStateCode: "27", BuyerStateCode: "99"},
		"bad mode":          {UnitPricePaise: 100, Qty: 1, TaxRateBps: 1200, Mode: "half", SellerStateCode: "27", BuyerStateCode: "27"},
		"discount > line":   {UnitPricePaise: 100, Qty: 1, DiscountPaise: 500, TaxRateBps: 1200, Mode: enums.TaxModeExclusive, SellerStateCode: "27", BuyerStateCode: "27"},
	}
	for name, in := range cases {
		if _, err := ComputeLine(in); err == nil {
			t.Fatalf("%s: expected validation error", name)
		} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
	}
}
