package enums

// TaxComponentKind names the levy a tax line belongs to. Intra-state supplies
// carry CGST+SGST halves, inter-state supplies carry a single IGST component.
type TaxComponentKind string

const (
	TaxComponentCGST TaxComponentKind = "cgst"
	TaxComponentSGST TaxComponentKind = "sgst"
	TaxComponentIGST TaxComponentKind = "igst"
)

// String implements fmt.Stringer.
func (k TaxComponentKind) String() string {
	return string(k)
}
