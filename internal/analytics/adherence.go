package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryAdherence is one budget's score.
type CategoryAdherence struct {
	CategoryID string         `json:"category_id"`
	Category   string         `json:"category"`
	Budget     Fixed          `json:"budget"`
	Spent      Fixed          `json:"spent"`
	Score      int            `json:"score"`
	Status     AdherenceLevel `json:"status"`
}

// AdherenceInsights counts categories per band.
type AdherenceInsights struct {
	ExcellentCount int `json:"excellent_count"`
	GoodCount      int `json:"good_count"`
	WarningCount   int `json:"warning_count"`
	CriticalCount  int `json:"critical_count"`
}

// AdherenceReport scores how well the current month's budgets are kept.
type AdherenceReport struct {
	Message      string              `json:"message"`
	Month        Month               `json:"month"`
	OverallScore int                 `json:"overall_score"`
	Grade        Grade               `json:"grade"`
	Categories   []CategoryAdherence `json:"categories"`
	Insights     AdherenceInsights   `json:"insights"`
}

// AdherenceScore rates spend against budget from 0 to 100. No spend scores
// 100, spend up to the budget falls linearly to 50, and each percent over
// the budget costs one more point, floored at 0.
func AdherenceScore(spent, budget decimal.Decimal) int {
	if spent.IsZero() {
		return 100
	}
	if !budget.IsPositive() {
		return 0
	}
	if spent.LessThanOrEqual(budget) {
		return int(hundred.Sub(spent.Mul(fifty).Div(budget)).IntPart())
	}
	over := spent.Sub(budget).Mul(hundred).Div(budget)
	score := int(fifty.Sub(over).IntPart())
	if score < 0 {
		return 0
	}
	return score
}

// Adherence scores every budget of the month containing today. The overall
// score is the truncated mean. Without budgets the score is 0 and the grade is D.
func Adherence(snap Snapshot, today time.Time) AdherenceReport {
	month := MonthOf(today)
	l := newLedger(snap)
	report := AdherenceReport{
		Month:      month,
		Grade:      GradeFor(0),
		Categories: []CategoryAdherence{},
	}

	budgets := budgetsIn(snap, month, l)
	if len(budgets) == 0 {
		report.Message = "No budgets found for current month"
		return report
	}

	sum := 0
	for _, b := range budgets {
		spent, _ := l.spent(b.CategoryID, month)
		score := AdherenceScore(spent, b.Amount)
		sum += score

		level := AdherenceBand(score)
		switch level {
		case AdherenceExcellent:
			report.Insights.ExcellentCount++
		case AdherenceGood:
			report.Insights.GoodCount++
		case AdherenceWarning:
			report.Insights.WarningCount++
		case AdherenceCritical:
			report.Insights.CriticalCount++
		}

		report.Categories = append(report.Categories, CategoryAdherence{
			CategoryID: b.CategoryID,
			Category:   l.categoryName(b.CategoryID, &b.Category),
			Budget:     NewFixed(b.Amount),
			Spent:      NewFixed(spent),
			Score:      score,
			Status:     level,
		})
	}

	report.OverallScore = sum / len(budgets)
	report.Grade = GradeFor(report.OverallScore)
	report.Message = "Budget adherence calculated successfully"
	return report
}
