package analytics

import (
	"sort"
	"time"

	"spendwise/internal/models"

	"github.com/shopspring/decimal"
)

// NoBudgetsMessage accompanies an empty utilization report.
const NoBudgetsMessage = "No budgets found for this month"

// UtilizationRow is one budget's consumption for the month.
type UtilizationRow struct {
	CategoryID         string `json:"category_id"`
	CategoryName       string `json:"category_name"`
	Budget             Fixed  `json:"budget"`
	Spent              Fixed  `json:"spent"`
	Remaining          Fixed  `json:"remaining"`
	UtilizationPercent Fixed  `json:"utilization_percent"`
	Status             Status `json:"status"`
	ExpenseCount       int    `json:"expense_count"`
}

// UtilizationSummary aggregates every row of a report.
type UtilizationSummary struct {
	TotalBudget        Fixed `json:"total_budget"`
	TotalSpent         Fixed `json:"total_spent"`
	TotalRemaining     Fixed `json:"total_remaining"`
	OverallUtilization Fixed `json:"overall_utilization"`
	CategoriesCount    int   `json:"categories_count"`
	OverBudgetCount    int   `json:"over_budget_count"`
	CriticalCount      int   `json:"critical_count"`
}

// UtilizationReport is budget against actual spend for one month.
type UtilizationReport struct {
	Message   string             `json:"message"`
	Month     Month              `json:"month"`
	MonthName string             `json:"month_name"`
	Summary   UtilizationSummary `json:"summary"`
	Data      []UtilizationRow   `json:"data"`
}

// Utilization computes spent, remaining and the status band for each budget
// in month, sorted by utilization descending.
func Utilization(snap Snapshot, month Month) UtilizationReport {
	report := UtilizationReport{
		Month:     month,
		MonthName: month.Name(),
		Data:      []UtilizationRow{},
	}

	l := newLedger(snap)
	budgets := budgetsIn(snap, month, l)
	if len(budgets) == 0 {
		report.Message = NoBudgetsMessage
		return report
	}

	totalBudget, totalSpent := decimal.Zero, decimal.Zero
	for _, b := range budgets {
		spent, count := l.spent(b.CategoryID, month)
		pct := percentOf(spent, b.Amount)
		totalBudget = totalBudget.Add(b.Amount)
		totalSpent = totalSpent.Add(spent)

		report.Data = append(report.Data, UtilizationRow{
			CategoryID:         b.CategoryID,
			CategoryName:       l.categoryName(b.CategoryID, &b.Category),
			Budget:             NewFixed(b.Amount),
			Spent:              NewFixed(spent),
			Remaining:          NewFixed(b.Amount.Sub(spent)),
			UtilizationPercent: NewFixed(pct),
			Status:             UtilizationBand(pct),
			ExpenseCount:       count,
		})
	}

	sort.SliceStable(report.Data, func(i, j int) bool {
		return report.Data[i].UtilizationPercent.GreaterThan(report.Data[j].UtilizationPercent.Decimal)
	})

	s := UtilizationSummary{
		TotalBudget:        NewFixed(totalBudget),
		TotalSpent:         NewFixed(totalSpent),
		TotalRemaining:     NewFixed(totalBudget.Sub(totalSpent)),
		OverallUtilization: NewFixed(percentOf(totalSpent, totalBudget)),
		CategoriesCount:    len(report.Data),
	}
	for _, row := range report.Data {
		switch row.Status {
		case StatusOverBudget:
			s.OverBudgetCount++
		case StatusCritical:
			s.CriticalCount++
		}
	}
	report.Summary = s
	report.Message = "Budget utilization retrieved successfully"
	return report
}

// DashboardCategory is one budgeted category on the dashboard.
type DashboardCategory struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Budget       Fixed  `json:"budget"`
	Spent        Fixed  `json:"spent"`
	Remaining    Fixed  `json:"remaining"`
	Percentage   Fixed  `json:"percentage"`
	Status       Status `json:"status"`
}

// RecentExpense is the dashboard preview of an expense.
type RecentExpense struct {
	ID           string             `json:"id"`
	Amount       Fixed              `json:"amount"`
	Date         string             `json:"date"`
	Notes        string             `json:"notes"`
	CategoryID   *string            `json:"category_id"`
	CategoryName string             `json:"category_name"`
	ExpenseType  models.ExpenseType `json:"expense_type"`
	CreatedAt    time.Time          `json:"created_at"`
}

// DashboardTotals is the headline block of the dashboard.
type DashboardTotals struct {
	TotalBudget        Fixed  `json:"total_budget"`
	TotalExpenses      Fixed  `json:"total_expenses"`
	RemainingBudget    Fixed  `json:"remaining_budget"`
	Savings            Fixed  `json:"savings"`
	UtilizationPercent Fixed  `json:"utilization_percent"`
	ExpenseCount       int    `json:"expense_count"`
	BudgetStatus       Status `json:"budget_status"`
}

// Dashboard is the month overview.
type Dashboard struct {
	Month                 Month               `json:"month"`
	MonthName             string              `json:"month_name"`
	Currency              string              `json:"currency"`
	Summary               DashboardTotals     `json:"summary"`
	Categories            []DashboardCategory `json:"categories"`
	TopSpendingCategories []DashboardCategory `json:"top_spending_categories"`
	RecentExpenses        []RecentExpense     `json:"recent_expenses"`
}

const (
	topCategoryLimit   = 5
	recentExpenseLimit = 10
)

// DashboardSummary builds the month overview: totals, budgeted categories
// by spend, the top five of those, and the ten most recent expenses.
func DashboardSummary(snap Snapshot, month Month) Dashboard {
	l := newLedger(snap)
	d := Dashboard{
		Month:      month,
		MonthName:  month.Name(),
		Currency:   currencyOf(snap),
		Categories: []DashboardCategory{},
	}

	totalBudget := decimal.Zero
	for _, b := range budgetsIn(snap, month, l) {
		spent, _ := l.spent(b.CategoryID, month)
		totalBudget = totalBudget.Add(b.Amount)
		d.Categories = append(d.Categories, DashboardCategory{
			CategoryID:   b.CategoryID,
			CategoryName: l.categoryName(b.CategoryID, &b.Category),
			Budget:       NewFixed(b.Amount),
			Spent:        NewFixed(spent),
			Remaining:    NewFixed(b.Amount.Sub(spent)),
			Percentage:   NewFixed(percentOf(spent, b.Amount)),
			Status:       SpendStatus(spent, b.Amount),
		})
	}
	sort.SliceStable(d.Categories, func(i, j int) bool {
		return d.Categories[i].Spent.GreaterThan(d.Categories[j].Spent.Decimal)
	})

	top := len(d.Categories)
	if top > topCategoryLimit {
		top = topCategoryLimit
	}
	d.TopSpendingCategories = append([]DashboardCategory{}, d.Categories[:top]...)

	totalExpenses, count := l.monthTotal(month)
	remaining := totalBudget.Sub(totalExpenses)
	savings := decimal.Zero
	if remaining.IsPositive() {
		savings = remaining
	}
	d.Summary = DashboardTotals{
		TotalBudget:        NewFixed(totalBudget),
		TotalExpenses:      NewFixed(totalExpenses),
		RemainingBudget:    NewFixed(remaining),
		Savings:            NewFixed(savings),
		UtilizationPercent: NewFixed(percentOf(totalExpenses, totalBudget)),
		ExpenseCount:       count,
		BudgetStatus:       SpendStatus(totalExpenses, totalBudget),
	}

	d.RecentExpenses = recentExpenses(expensesIn(snap, month), l)
	return d
}

func recentExpenses(expenses []models.Expense, l *ledger) []RecentExpense {
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	if len(expenses) > recentExpenseLimit {
		expenses = expenses[:recentExpenseLimit]
	}

	out := make([]RecentExpense, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, RecentExpense{
			ID:           e.ID,
			Amount:       NewFixed(e.Amount),
			Date:         e.Date.Format(time.DateOnly),
			Notes:        e.Notes,
			CategoryID:   e.CategoryID,
			CategoryName: l.categoryName(categoryOf(e), e.Category),
			ExpenseType:  e.ExpenseType,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}
