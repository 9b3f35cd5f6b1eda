package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

var (
	headerColor = [3]int{31, 56, 100}
	stripeColor = [3]int{242, 242, 242}
)

// column widths in mm; A4 portrait leaves 190mm between margins
const (
	dateWidth     = 28.0
	categoryWidth = 50.0
	amountWidth   = 36.0
	notesWidth    = 76.0
	rowHeight     = 7.0
)

// PDF renders the report as an A4 document.
func PDF(r Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Expense Report", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Expense Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s to %s", r.From.Format("02 Jan 2006"), r.To.Format("02 Jan 2006")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	tableHeader(pdf)
	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(stripeColor[0], stripeColor[1], stripeColor[2])
	for i, e := range r.Expenses {
		if pdf.GetY()+rowHeight > 280 {
			pdf.AddPage()
			tableHeader(pdf)
			pdf.SetFont("Arial", "", 9)
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFillColor(stripeColor[0], stripeColor[1], stripeColor[2])
		}
		fill := i%2 == 1
		pdf.CellFormat(dateWidth, rowHeight, e.Date.Format("2006-01-02"), "", 0, "L", fill, 0, "")
		pdf.CellFormat(categoryWidth, rowHeight, tr(truncate(categoryLabel(e), 28)), "", 0, "L", fill, 0, "")
		pdf.CellFormat(amountWidth, rowHeight, e.Amount.StringFixed(2)+" "+r.Currency, "", 0, "R", fill, 0, "")
		pdf.CellFormat(notesWidth, rowHeight, tr(truncate(e.Notes, 45)), "", 1, "L", fill, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(dateWidth+categoryWidth, rowHeight, fmt.Sprintf("Total (%d expenses)", len(r.Expenses)), "T", 0, "L", false, 0, "")
	pdf.CellFormat(amountWidth, rowHeight, r.Total().StringFixed(2)+" "+r.Currency, "T", 0, "R", false, 0, "")
	pdf.CellFormat(notesWidth, rowHeight, "", "T", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func tableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(dateWidth, rowHeight, "Date", "", 0, "L", true, 0, "")
	pdf.CellFormat(categoryWidth, rowHeight, "Category", "", 0, "L", true, 0, "")
	pdf.CellFormat(amountWidth, rowHeight, "Amount", "", 0, "R", true, 0, "")
	pdf.CellFormat(notesWidth, rowHeight, "Notes", "", 1, "L", true, 0, "")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
