package tax

import (
	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
)

// stateNames enumerates the GST state codes an invoice may carry. Derived from
// the first two digits of a GSTIN; anything outside this table is rejected
// before any tax arithmetic runs.
var stateNames = map[string]string{
	"01": "Jammu and Kashmir",
	"02": "Himachal Pradesh",
	"03": "Punjab",
	"04": "Chandigarh",
	"05": "Uttarakhand",
	"06": "Haryana",
	"07": "Delhi",
	"08": "Rajasthan",
	"09": "Uttar Pradesh",
	"10": "Bihar",
	"11": "Sikkim",
	"12": "Arunachal Pradesh",
	"13": "Nagaland",
	"14": "Manipur",
	"15": "Mizoram",
	"16": "Tripura",
	"17": "Meghalaya",
	"18": "Assam",
	"19": "West Bengal",
	"20": "Jharkhand",
	"21": "Odisha",
	"22": "Chhattisgarh",
	"23": "Madhya Pradesh",
	"24": "Gujarat",
	"26": "Dadra and Nagar Haveli and Daman and Diu",
	"27": "Maharashtra",
	"29": "Karnataka",
	"30": "Goa",
	"31": "Lakshadweep",
	"32": "Kerala",
	"33": "Tamil Nadu",
	"34": "Puducherry",
	"35": "Andaman and Nicobar Islands",
	"36": "Telangana",
	"37": "Andhra Pradesh",
	"38": "Ladakh",
	"97": "Other Territory",
}

// ValidStateCode reports whether the two-digit code is a known GST state code.
func ValidStateCode(code string) bool {
	_, ok := stateNames[code]
	return ok
}

// StateName returns the display name for a state code.
func StateName(code string) (string, bool) {
	name, ok := stateNames[code]
	return name, ok
}

// ValidateStateCode returns a typed validation error for unknown codes.
func ValidateStateCode(field, code string) error {
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, field+" state code required")
	}
	if !ValidStateCode(code) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown "+field+" state code").
			WithDetails(map[string]any{field: code})
	}
	return nil
}
