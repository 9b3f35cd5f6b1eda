package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BreakdownRow is one category's share of a month's spend.
type BreakdownRow struct {
	CategoryID    string `json:"category_id"`
	CategoryName  string `json:"category_name"`
	Amount        Fixed  `json:"amount"`
	Percentage    Fixed  `json:"percentage"`
	Budget        *Fixed `json:"budget,omitempty"`
	BudgetPercent *Fixed `json:"budget_percent,omitempty"`
}

// Breakdown is spend per category for one month.
type Breakdown struct {
	Month      Month          `json:"month"`
	TotalSpent Fixed          `json:"total_spent"`
	Data       []BreakdownRow `json:"data"`
}

// CategoryBreakdown sums the month's spend for every owned category, drops
// categories with no spend and sorts by amount descending. With
// includeBudget each row also carries the budget (zero when there is none)
// and spend as a percentage of it.
func CategoryBreakdown(snap Snapshot, month Month, includeBudget bool) Breakdown {
	l := newLedger(snap)

	budgetFor := make(map[string]decimal.Decimal)
	for _, b := range snap.Budgets {
		if month.Contains(b.Month) {
			budgetFor[b.CategoryID] = b.Amount
		}
	}

	out := Breakdown{Month: month, Data: []BreakdownRow{}}
	total := decimal.Zero
	for _, c := range sortedCategories(snap) {
		spent, _ := l.spent(c.ID, month)
		if !spent.IsPositive() {
			continue
		}
		total = total.Add(spent)

		row := BreakdownRow{
			CategoryID:   c.ID,
			CategoryName: c.Name,
			Amount:       NewFixed(spent),
		}
		if includeBudget {
			amount := budgetFor[c.ID]
			budget := NewFixed(amount)
			pct := NewFixed(percentOf(spent, amount))
			row.Budget = &budget
			row.BudgetPercent = &pct
		}
		out.Data = append(out.Data, row)
	}

	for i := range out.Data {
		out.Data[i].Percentage = NewFixed(percentOf(out.Data[i].Amount.Decimal, total))
	}
	sort.SliceStable(out.Data, func(i, j int) bool {
		return out.Data[i].Amount.GreaterThan(out.Data[j].Amount.Decimal)
	})

	out.TotalSpent = NewFixed(total)
	return out
}

// NoExpensesMessage accompanies all-zero statistics.
const NoExpensesMessage = "No expenses found for current month"

// CategoryTotal names a category and its spend.
type CategoryTotal struct {
	Name  string `json:"name"`
	Total Fixed  `json:"total"`
}

// Stats summarises the current month's expenses.
type Stats struct {
	Message               string         `json:"message"`
	Month                 Month          `json:"month"`
	Total                 Fixed          `json:"total"`
	Count                 int            `json:"count"`
	Average               Fixed          `json:"average"`
	Max                   Fixed          `json:"max"`
	Min                   Fixed          `json:"min"`
	AveragePerDay         Fixed          `json:"average_per_day"`
	MostExpensiveCategory *CategoryTotal `json:"most_expensive_category"`
}

// Statistics computes count, total, mean, extremes and daily average for
// the month containing today. Days elapsed run from the 1st through today inclusive.
func Statistics(snap Snapshot, today time.Time) Stats {
	month := MonthOf(today)
	expenses := expensesIn(snap, month)

	s := Stats{Month: month}
	if len(expenses) == 0 {
		s.Message = NoExpensesMessage
		return s
	}

	l := newLedger(snap)
	total := decimal.Zero
	maxAmt, minAmt := expenses[0].Amount, expenses[0].Amount
	byName := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		total = total.Add(e.Amount)
		if e.Amount.GreaterThan(maxAmt) {
			maxAmt = e.Amount
		}
		if e.Amount.LessThan(minAmt) {
			minAmt = e.Amount
		}
		name := l.categoryName(categoryOf(e), e.Category)
		byName[name] = byName[name].Add(e.Amount)
	}

	count := decimal.NewFromInt(int64(len(expenses)))
	days := decimal.NewFromInt(int64(today.Day()))

	s.Message = "Expense statistics retrieved successfully"
	s.Total = NewFixed(total)
	s.Count = len(expenses)
	s.Average = NewFixed(total.Div(count))
	s.Max = NewFixed(maxAmt)
	s.Min = NewFixed(minAmt)
	s.AveragePerDay = NewFixed(total.Div(days))
	s.MostExpensiveCategory = topCategory(byName)
	return s
}

// topCategory picks the largest total, breaking ties by name.
func topCategory(byName map[string]decimal.Decimal) *CategoryTotal {
	var best *CategoryTotal
	for name, total := range byName {
		if best == nil ||
			total.GreaterThan(best.Total.Decimal) ||
			(total.Equal(best.Total.Decimal) && name < best.Name) {
			best = &CategoryTotal{Name: name, Total: NewFixed(total)}
		}
	}
	return best
}
