package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/models"
)

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func sampleReport() Report {
	groceries := &models.Category{Name: "Groceries"}
	return Report{
		Currency: "INR",
		From:     day("2026-03-01"),
		To:       day("2026-03-31"),
		Expenses: []models.Expense{
			{Amount: decimal.RequireFromString("120.5"), Date: day("2026-03-02"), Notes: "weekly shop", ExpenseType: models.ExpenseTypeVariable, Category: groceries},
			{Amount: decimal.RequireFromString("900"), Date: day("2026-03-05"), Notes: "rent, march", ExpenseType: models.ExpenseTypeFixed, IsRecurring: true},
		},
	}
}

func TestReportTotalAndFilename(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, "1020.50", r.Total().StringFixed(2))
	assert.Equal(t, "expenses_20260301_20260331.pdf", r.Filename("pdf"))
}

func TestCSV(t *testing.T) {
	out, err := CSV(sampleReport())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"date", "category", "amount", "currency", "expense_type", "is_recurring", "notes"}, records[0])
	assert.Equal(t, []string{"2026-03-02", "Groceries", "120.50", "INR", "variable", "false", "weekly shop"}, records[1])
	assert.Equal(t, "Uncategorized", records[2][1])
	assert.Equal(t, "rent, march", records[2][6])
}

func TestCSVEmptyKeepsHeader(t *testing.T) {
	r := sampleReport()
	r.Expenses = nil

	out, err := CSV(r)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "date", records[0][0])
}

func TestPDF(t *testing.T) {
	out, err := PDF(sampleReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), "missing pdf magic")
}

func TestPDFPaginatesLongReports(t *testing.T) {
	r := sampleReport()
	for i := 0; i < 120; i++ {
		r.Expenses = append(r.Expenses, r.Expenses[0])
	}
	short, err := PDF(sampleReport())
	require.NoError(t, err)
	long, err := PDF(r)
	require.NoError(t, err)
	assert.Greater(t, bytes.Count(long, []byte("/Type /Page")), bytes.Count(short, []byte("/Type /Page")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
