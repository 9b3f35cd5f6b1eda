// Package analytics computes budget and spending views from a read-only
// snapshot of one user's categories, budgets and expenses.
//
// Every operation is a pure function of its inputs. The current date is
// always passed in explicitly.
package analytics

import (
	"sort"
	"strings"

	"spendwise/internal/models"

	"github.com/shopspring/decimal"
)

// UncategorizedName labels spend with no category.
const UncategorizedName = "Uncategorized"

// Snapshot is the data one operation reads. It may hold more rows than the
// operation needs; each operation filters by month itself.
type Snapshot struct {
	Categories []models.Category
	Budgets    []models.Budget
	Expenses   []models.Expense
	Currency   string
}

// Fixed is a decimal that always renders with two places.
type Fixed struct {
	decimal.Decimal
}

// NewFixed rounds d half-up to two places.
func NewFixed(d decimal.Decimal) Fixed {
	return Fixed{d.Round(2)}
}

func (f Fixed) String() string {
	return f.StringFixed(2)
}

func (f Fixed) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.StringFixed(2) + `"`), nil
}

// percentOf returns part/whole*100 rounded half-up to two places, or zero
// when whole is not positive.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}

// tally is a running sum and count.
type tally struct {
	total decimal.Decimal
	count int
}

func (t *tally) add(amount decimal.Decimal) {
	t.total = t.total.Add(amount)
	t.count++
}

type spendKey struct {
	categoryID string
	month      Month
}

// ledger groups expenses by (category, month) and by month in one pass.
type ledger struct {
	byCategoryMonth map[spendKey]*tally
	byMonth         map[Month]*tally
	names           map[string]string
}

func newLedger(snap Snapshot) *ledger {
	l := &ledger{
		byCategoryMonth: make(map[spendKey]*tally),
		byMonth:         make(map[Month]*tally),
		names:           make(map[string]string, len(snap.Categories)),
	}
	for _, c := range snap.Categories {
		l.names[c.ID] = c.Name
	}
	for _, e := range snap.Expenses {
		m := MonthOf(e.Date)
		key := spendKey{categoryID: categoryOf(e), month: m}
		bump(l.byCategoryMonth, key, e.Amount)
		bump(l.byMonth, m, e.Amount)
	}
	return l
}

func bump[K comparable](m map[K]*tally, key K, amount decimal.Decimal) {
	t, ok := m[key]
	if !ok {
		t = &tally{}
		m[key] = t
	}
	t.add(amount)
}

func categoryOf(e models.Expense) string {
	if e.CategoryID == nil {
		return ""
	}
	return *e.CategoryID
}

// spent returns the total and count for a category in a month.
func (l *ledger) spent(categoryID string, m Month) (decimal.Decimal, int) {
	if t, ok := l.byCategoryMonth[spendKey{categoryID, m}]; ok {
		return t.total, t.count
	}
	return decimal.Zero, 0
}

// monthTotal returns the total and count for all expenses in a month.
func (l *ledger) monthTotal(m Month) (decimal.Decimal, int) {
	if t, ok := l.byMonth[m]; ok {
		return t.total, t.count
	}
	return decimal.Zero, 0
}

// categoryName resolves a name from the snapshot, falling back to a
// preloaded association and then to the uncategorized label.
func (l *ledger) categoryName(id string, fallback *models.Category) string {
	if name, ok := l.names[id]; ok {
		return name
	}
	if fallback != nil && fallback.Name != "" {
		return fallback.Name
	}
	if id == "" {
		return UncategorizedName
	}
	return ""
}

// budgetsIn returns the month's budgets ordered by category name.
func budgetsIn(snap Snapshot, m Month, l *ledger) []models.Budget {
	var out []models.Budget
	for _, b := range snap.Budgets {
		if m.Contains(b.Month) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(l.categoryName(out[i].CategoryID, &out[i].Category)) <
			strings.ToLower(l.categoryName(out[j].CategoryID, &out[j].Category))
	})
	return out
}

// expensesIn returns the month's expenses in snapshot order.
func expensesIn(snap Snapshot, m Month) []models.Expense {
	var out []models.Expense
	for _, e := range snap.Expenses {
		if m.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// sortedCategories returns the categories ordered by name, case-insensitively.
func sortedCategories(snap Snapshot) []models.Category {
	out := make([]models.Category, len(snap.Categories))
	copy(out, snap.Categories)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func currencyOf(snap Snapshot) string {
	if snap.Currency == "" {
		return models.DefaultCurrency
	}
	return snap.Currency
}
