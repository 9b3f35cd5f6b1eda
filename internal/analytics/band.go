package analytics

import "github.com/shopspring/decimal"

// Status is the utilization band of a budget.
type Status string

const (
	StatusGood       Status = "good"
	StatusWarning    Status = "warning"
	StatusCritical   Status = "critical"
	StatusOverBudget Status = "over_budget"
	StatusOnTrack    Status = "on_track"
)

var (
	hundred     = decimal.NewFromInt(100)
	ninety      = decimal.NewFromInt(90)
	seventyFive = decimal.NewFromInt(75)
	fifty       = decimal.NewFromInt(50)
)

// UtilizationBand maps a utilization percentage to its status.
func UtilizationBand(percent decimal.Decimal) Status {
	switch {
	case percent.GreaterThanOrEqual(hundred):
		return StatusOverBudget
	case percent.GreaterThanOrEqual(ninety):
		return StatusCritical
	case percent.GreaterThanOrEqual(seventyFive):
		return StatusWarning
	default:
		return StatusGood
	}
}

// SpendStatus is the coarser dashboard status: over_budget only when spent exceeds budget.
func SpendStatus(spent, budget decimal.Decimal) Status {
	if spent.GreaterThan(budget) {
		return StatusOverBudget
	}
	return StatusOnTrack
}

// Grade is the letter grade for an overall adherence score.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
)

// GradeFor maps a 0-100 score to a letter grade.
func GradeFor(score int) Grade {
	switch {
	case score >= 90:
		return GradeAPlus
	case score >= 80:
		return GradeA
	case score >= 70:
		return GradeB
	case score >= 60:
		return GradeC
	default:
		return GradeD
	}
}

// AdherenceLevel is the per-category adherence band.
type AdherenceLevel string

const (
	AdherenceExcellent AdherenceLevel = "excellent"
	AdherenceGood      AdherenceLevel = "good"
	AdherenceWarning   AdherenceLevel = "warning"
	AdherenceCritical  AdherenceLevel = "critical"
)

// AdherenceBand maps a category score to its band.
func AdherenceBand(score int) AdherenceLevel {
	switch {
	case score >= 80:
		return AdherenceExcellent
	case score >= 60:
		return AdherenceGood
	case score >= 40:
		return AdherenceWarning
	default:
		return AdherenceCritical
	}
}

// Trend tags the direction of a per-category change.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendSame Trend = "same"
)

// TrendOf tags a difference by its sign.
func TrendOf(diff decimal.Decimal) Trend {
	switch diff.Sign() {
	case 1:
		return TrendUp
	case -1:
		return TrendDown
	default:
		return TrendSame
	}
}

// Direction is the overall month over month movement.
type Direction string

const (
	DirectionIncreased Direction = "increased"
	DirectionDecreased Direction = "decreased"
	DirectionSame      Direction = "same"
)

// DirectionOf tags an overall difference by its sign.
func DirectionOf(diff decimal.Decimal) Direction {
	switch diff.Sign() {
	case 1:
		return DirectionIncreased
	case -1:
		return DirectionDecreased
	default:
		return DirectionSame
	}
}
