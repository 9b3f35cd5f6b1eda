package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/gocarina/gocsv"
)

// csvRow is one expense line in the CSV export.
type csvRow struct {
	Date        string `csv:"date"`
	Category    string `csv:"category"`
	Amount      string `csv:"amount"`
	Currency    string `csv:"currency"`
	ExpenseType string `csv:"expense_type"`
	Recurring   bool   `csv:"is_recurring"`
	Notes       string `csv:"notes"`
}

// CSV renders the report with a header row and one row per expense.
func CSV(r Report) ([]byte, error) {
	rows := make([]csvRow, 0, len(r.Expenses))
	for _, e := range r.Expenses {
		rows = append(rows, csvRow{
			Date:        e.Date.Format("2006-01-02"),
			Category:    categoryLabel(e),
			Amount:      e.Amount.StringFixed(2),
			Currency:    r.Currency,
			ExpenseType: string(e.ExpenseType),
			Recurring:   e.IsRecurring,
			Notes:       e.Notes,
		})
	}

	var buf bytes.Buffer
	w := gocsv.NewSafeCSVWriter(csv.NewWriter(&buf))
	if err := gocsv.MarshalCSV(rows, w); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}
