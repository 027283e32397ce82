package enums

import "fmt"

// BarcodeScheme identifies how a scanned code is interpreted.
type BarcodeScheme string

const (
	BarcodeSchemeEAN13    BarcodeScheme = "ean13"
	BarcodeSchemeHSN      BarcodeScheme = "hsn"
	BarcodeSchemeInternal BarcodeScheme = "internal"
	BarcodeSchemeCustom   BarcodeScheme = "custom"
)

var validBarcodeSchemes = []BarcodeScheme{
	BarcodeSchemeEAN13,
	BarcodeSchemeHSN,
	BarcodeSchemeInternal,
	BarcodeSchemeCustom,
}

// String implements fmt.Stringer.
func (b BarcodeScheme) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BarcodeScheme.
func (b BarcodeScheme) IsValid() bool {
	for _, candidate := range validBarcodeSchemes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBarcodeScheme converts raw input into a BarcodeScheme.
func ParseBarcodeScheme(value string) (BarcodeScheme, error) {
	for _, candidate := range validBarcodeSchemes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid barcode scheme %q", value)
}
