package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/medeva/pharmapos-backend/pkg/errors"
)

// fiscalYearStartMonth is April; Indian GST invoices number within the
// April-to-March fiscal year.
const fiscalYearStartMonth = time.April

// FiscalYearStart returns the calendar year the fiscal year containing t
// began in.
func FiscalYearStart(t time.Time) int {
	if t.Month() >= fiscalYearStartMonth {
		return t.Year()
	}
	return t.Year() - 1
}

// FiscalYearLabel renders the two-digit span for a fiscal start year,
// e.g. 2025 -> "25-26".
func FiscalYearLabel(startYear int) string {
	return fmt.Sprintf("%02d-%02d", startYear%100, (startYear+1)%100)
}

// IssuedNumber is one handed-out invoice number. Sequence is the perpetual
// per-registration counter; the printed number carries the fiscal-year
// counter, which restarts at 1 each April.
type IssuedNumber struct {
	Number   string
	Sequence int64
}

// Sequencer hands out invoice numbers for a registration. The counter
// advance is a single UPDATE .. RETURNING so two concurrent checkouts can
// never read the same value, and it must run inside the checkout transaction
// so an aborted commit releases the number with everything else.
type Sequencer struct {
	padWidth int
}

// NewSequencer builds a sequencer with the given zero-pad width for the
// printed counter.
func NewSequencer(padWidth int) *Sequencer {
	if padWidth <= 0 {
		padWidth = 4
	}
	return &Sequencer{padWidth: padWidth}
}

type counterRow struct {
	InvoicePrefix  string `gorm:"column:invoice_prefix"`
	InvoiceCounter int64  `gorm:"column:invoice_counter"`
	FYCounter      int64  `gorm:"column:fy_counter"`
}

// Next advances the registration's counters and returns the formatted
// invoice number, format PREFIX/FY-FY/NNNN.
func (s *Sequencer) Next(ctx context.Context, tx *gorm.DB, taxIdentityID uuid.UUID, now time.Time) (*IssuedNumber, error) {
	fyStart := FiscalYearStart(now)

	var row counterRow
	result := tx.WithContext(ctx).Raw(`
UPDATE tax_identities
SET invoice_counter = invoice_counter + 1,
    fy_counter = CASE WHEN fy_start_year = ? THEN fy_counter + 1 ELSE 1 END,
    fy_start_year = ?,
    updated_at = ?
WHERE id = ?
RETURNING invoice_prefix AS invoice_prefix,
          invoice_counter AS invoice_counter,
          fy_counter AS fy_counter`,
		fyStart, fyStart, now.UTC(), taxIdentityID,
	).Scan(&row)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeSequencing, result.Error, "advance invoice counter")
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tax identity not found")
	}

	number := fmt.Sprintf("%s/%s/%0*d", row.InvoicePrefix, FiscalYearLabel(fyStart), s.padWidth, row.FYCounter)
	return &IssuedNumber{Number: number, Sequence: row.InvoiceCounter}, nil
}
