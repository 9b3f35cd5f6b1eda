// Package export renders a user's expenses as downloadable PDF and CSV reports.
package export

import (
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/models"
)

// Uncategorized labels expenses whose category was removed or never set.
const Uncategorized = "Uncategorized"

// Report is the input to both renderers. Expenses should be preloaded with
// their Category and sorted by date.
type Report struct {
	Currency string
	From     time.Time
	To       time.Time
	Expenses []models.Expense
}

// Total sums every expense in the report.
func (r Report) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range r.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Filename returns the attachment name for the given extension.
func (r Report) Filename(ext string) string {
	return "expenses_" + r.From.Format("20060102") + "_" + r.To.Format("20060102") + "." + ext
}

func categoryLabel(e models.Expense) string {
	if name := e.CategoryName(); name != "" {
		return name
	}
	return Uncategorized
}
