package tax

// paisePerRupee is the minor-unit factor for INR.
const paisePerRupee = 100

// RoundOff holds the whole-rupee rounding of an invoice total. Adjustment is
// carried on the invoice as its own signed line so the displayed components
// always sum exactly to the displayed total.
type RoundOff struct {
	RoundedPaise    int64
	AdjustmentPaise int64
}

// RoundToWholeRupee rounds the amount to the nearest whole rupee, half paise
// up. Guarantees RoundedPaise%100 == 0 and |AdjustmentPaise| <= 50.
func RoundToWholeRupee(amountPaise int64) RoundOff {
	remainder := amountPaise % paisePerRupee
	if remainder < 0 {
		remainder += paisePerRupee
	}
	rounded := amountPaise - remainder
	if remainder >= paisePerRupee/2 {
		rounded += paisePerRupee
	}
	return RoundOff{
		RoundedPaise:    rounded,
		AdjustmentPaise: rounded - amountPaise,
	}
}
