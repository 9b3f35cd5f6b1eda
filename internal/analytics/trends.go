package analytics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Period selects the trend series shape.
type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodWeekly  Period = "weekly"
)

const (
	DefaultTrendMonths = 6
	MaxTrendMonths     = 24
	trendWeeks         = 8
)

var (
	ErrInvalidPeriod = errors.New("invalid period, expected weekly or monthly")
	ErrInvalidMonths = errors.New("invalid months, expected a whole number")
)

// ParsePeriod accepts "weekly" or "monthly"; blank means monthly.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodMonthly:
		return PeriodMonthly, nil
	case PeriodWeekly:
		return PeriodWeekly, nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidPeriod, s)
}

// ParseTrendMonths parses the months count and clamps it to [1, 24].
// Blank means the default of six.
func ParseTrendMonths(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTrendMonths, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: got %q", ErrInvalidMonths, s)
	}
	return ClampTrendMonths(n), nil
}

// ClampTrendMonths bounds n to [1, 24].
func ClampTrendMonths(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxTrendMonths:
		return MaxTrendMonths
	}
	return n
}

// MonthlyPoint is one month in a monthly series.
type MonthlyPoint struct {
	Period     string `json:"period"`
	Month      Month  `json:"month"`
	Expenses   Fixed  `json:"expenses"`
	Budget     Fixed  `json:"budget"`
	Difference Fixed  `json:"difference"`
}

// WeeklyPoint is one seven day window in a weekly series.
type WeeklyPoint struct {
	Period    string `json:"period"`
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
	Expenses  Fixed  `json:"expenses"`
}

// MonthlyTrends reports spend, budget and budget minus spend for the last
// months calendar months ending with today's month, oldest first.
func MonthlyTrends(snap Snapshot, today time.Time, months int) []MonthlyPoint {
	months = ClampTrendMonths(months)
	l := newLedger(snap)

	budgetTotals := make(map[Month]decimal.Decimal)
	for _, b := range snap.Budgets {
		m := MonthOf(b.Month)
		budgetTotals[m] = budgetTotals[m].Add(b.Amount)
	}

	current := MonthOf(today)
	out := make([]MonthlyPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		m := current.AddMonths(-i)
		spent, _ := l.monthTotal(m)
		budget := budgetTotals[m]
		out = append(out, MonthlyPoint{
			Period:     m.ShortName(),
			Month:      m,
			Expenses:   NewFixed(spent),
			Budget:     NewFixed(budget),
			Difference: NewFixed(budget.Sub(spent)),
		})
	}
	return out
}

// WeeklyTrends reports spend for eight seven day windows, oldest first. Window
// i starts i weeks before today and spans six further days, both ends inclusive.
func WeeklyTrends(snap Snapshot, today time.Time) []WeeklyPoint {
	today = Day(today)
	out := make([]WeeklyPoint, 0, trendWeeks)
	for i := trendWeeks - 1; i >= 0; i-- {
		start := today.AddDate(0, 0, -7*i)
		end := start.AddDate(0, 0, 6)

		total := decimal.Zero
		for _, e := range snap.Expenses {
			d := Day(e.Date)
			if !d.Before(start) && !d.After(end) {
				total = total.Add(e.Amount)
			}
		}
		out = append(out, WeeklyPoint{
			Period:    "Week " + start.Format("02 Jan"),
			WeekStart: start.Format(time.DateOnly),
			WeekEnd:   end.Format(time.DateOnly),
			Expenses:  NewFixed(total),
		})
	}
	return out
}

// MonthTotal is one side of a month comparison.
type MonthTotal struct {
	Period       string `json:"period"`
	Month        Month  `json:"month"`
	Total        Fixed  `json:"total"`
	ExpenseCount int    `json:"expense_count"`
}

// ComparisonSummary is the overall movement between the two months.
type ComparisonSummary struct {
	Difference    Fixed     `json:"difference"`
	PercentChange Fixed     `json:"percent_change"`
	Trend         Direction `json:"trend"`
	Status        string    `json:"status"`
}

// CategoryComparison is one category's movement between the two months.
type CategoryComparison struct {
	CategoryID    string `json:"category_id"`
	Category      string `json:"category"`
	CurrentMonth  Fixed  `json:"current_month"`
	PreviousMonth Fixed  `json:"previous_month"`
	Difference    Fixed  `json:"difference"`
	PercentChange Fixed  `json:"percent_change"`
	Trend         Trend  `json:"trend"`
}

// Comparison is the current month against the previous one.
type Comparison struct {
	CurrentMonth       MonthTotal           `json:"current_month"`
	PreviousMonth      MonthTotal           `json:"previous_month"`
	Comparison         ComparisonSummary    `json:"comparison"`
	CategoryComparison []CategoryComparison `json:"category_comparison"`
}

// CompareMonths compares today's month with the one before it. Percent
// change is zero whenever the previous total is zero. Categories with no
// spend in either month are left out.
func CompareMonths(snap Snapshot, today time.Time) Comparison {
	l := newLedger(snap)
	cur := MonthOf(today)
	prev := cur.AddMonths(-1)

	curTotal, curCount := l.monthTotal(cur)
	prevTotal, prevCount := l.monthTotal(prev)
	diff := curTotal.Sub(prevTotal)

	status := "good"
	if diff.IsPositive() {
		status = "warning"
	}

	out := Comparison{
		CurrentMonth:  MonthTotal{Period: cur.Name(), Month: cur, Total: NewFixed(curTotal), ExpenseCount: curCount},
		PreviousMonth: MonthTotal{Period: prev.Name(), Month: prev, Total: NewFixed(prevTotal), ExpenseCount: prevCount},
		Comparison: ComparisonSummary{
			Difference:    NewFixed(diff),
			PercentChange: NewFixed(percentOf(diff, prevTotal)),
			Trend:         DirectionOf(diff),
			Status:        status,
		},
		CategoryComparison: []CategoryComparison{},
	}

	for _, c := range sortedCategories(snap) {
		now, _ := l.spent(c.ID, cur)
		before, _ := l.spent(c.ID, prev)
		if now.IsZero() && before.IsZero() {
			continue
		}
		d := now.Sub(before)
		out.CategoryComparison = append(out.CategoryComparison, CategoryComparison{
			CategoryID:    c.ID,
			Category:      c.Name,
			CurrentMonth:  NewFixed(now),
			PreviousMonth: NewFixed(before),
			Difference:    NewFixed(d),
			PercentChange: NewFixed(percentOf(d, before)),
			Trend:         TrendOf(d),
		})
	}
	return out
}
