package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"spendwise/internal/analytics"
	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
	"spendwise/internal/models"
)

// analyticsService reads a user's rows into a snapshot and hands it to the
// aggregation engine. Each call reads once; nothing is cached.
type analyticsService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB) AnalyticsServicer {
	return &analyticsService{db: db, now: time.Now}
}

// Today is the date every relative analytics view is computed against.
func (s *analyticsService) Today() time.Time {
	return analytics.Day(s.now())
}

// window is the date range a snapshot must cover.
type window struct {
	from, to time.Time
}

func monthWindow(first, last analytics.Month) window {
	return window{from: first.Start(), to: last.End()}
}

// load reads categories, settings currency, the budgets whose month falls in
// w and the expenses dated in w.
func (s *analyticsService) load(userID string, w window) (analytics.Snapshot, error) {
	snap := analytics.Snapshot{Currency: models.DefaultCurrency}

	if err := s.db.Where("user_id = ?", userID).Find(&snap.Categories).Error; err != nil {
		return snap, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budgetFrom := analytics.MonthOf(w.from).Start()
	err := s.db.Preload("Category").
		Where("user_id = ? AND month >= ? AND month <= ?", userID, budgetFrom, w.to).
		Find(&snap.Budgets).Error
	if err != nil {
		return snap, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.Preload("Category").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, w.from, w.to).
		Order("date DESC").Order("created_at DESC").
		Find(&snap.Expenses).Error
	if err != nil {
		return snap, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var settings models.UserSettings
	res := s.db.Where("user_id = ?", userID).Limit(1).Find(&settings)
	if res.Error != nil {
		return snap, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected > 0 && settings.Currency != "" {
		snap.Currency = settings.Currency
	}
	return snap, nil
}

// compute loads the snapshot for w and runs fn on it. A panic in fn becomes
// ErrAnalyticsFailed; the cause is logged.
func compute[T any](s *analyticsService, userID, op string, w window, fn func(analytics.Snapshot) T) (result *T, err error) {
	snap, err := s.load(userID, w)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Get().Errorw("analytics computation failed",
				"operation", op,
				"user_id", userID,
				"panic", fmt.Sprint(r),
			)
			result = nil
			err = apperrors.ErrAnalyticsFailed
		}
	}()

	out := fn(snap)
	return &out, nil
}

// Utilization reports per-category budget use for month.
func (s *analyticsService) Utilization(userID string, month analytics.Month) (*analytics.UtilizationReport, error) {
	return compute(s, userID, "utilization", monthWindow(month, month), func(snap analytics.Snapshot) analytics.UtilizationReport {
		return analytics.Utilization(snap, month)
	})
}

// Dashboard summarizes month.
func (s *analyticsService) Dashboard(userID string, month analytics.Month) (*analytics.Dashboard, error) {
	return compute(s, userID, "dashboard", monthWindow(month, month), func(snap analytics.Snapshot) analytics.Dashboard {
		return analytics.DashboardSummary(snap, month)
	})
}

// CategoryBreakdown splits month's spend by category.
func (s *analyticsService) CategoryBreakdown(userID string, month analytics.Month, includeBudget bool) (*analytics.Breakdown, error) {
	return compute(s, userID, "category_breakdown", monthWindow(month, month), func(snap analytics.Snapshot) analytics.Breakdown {
		return analytics.CategoryBreakdown(snap, month, includeBudget)
	})
}

// MonthlyTrends reports the last months calendar months.
func (s *analyticsService) MonthlyTrends(userID string, months int) ([]analytics.MonthlyPoint, error) {
	today := s.Today()
	months = analytics.ClampTrendMonths(months)
	current := analytics.MonthOf(today)
	w := monthWindow(current.AddMonths(-(months - 1)), current)

	points, err := compute(s, userID, "monthly_trends", w, func(snap analytics.Snapshot) []analytics.MonthlyPoint {
		return analytics.MonthlyTrends(snap, today, months)
	})
	if err != nil {
		return nil, err
	}
	return *points, nil
}

// WeeklyTrends reports the eight weekly windows ending with the one starting today.
func (s *analyticsService) WeeklyTrends(userID string) ([]analytics.WeeklyPoint, error) {
	today := s.Today()
	w := window{from: today.AddDate(0, 0, -49), to: today.AddDate(0, 0, 6)}

	points, err := compute(s, userID, "weekly_trends", w, func(snap analytics.Snapshot) []analytics.WeeklyPoint {
		return analytics.WeeklyTrends(snap, today)
	})
	if err != nil {
		return nil, err
	}
	return *points, nil
}

// Adherence scores the current month's budgets.
func (s *analyticsService) Adherence(userID string) (*analytics.AdherenceReport, error) {
	today := s.Today()
	current := analytics.MonthOf(today)
	return compute(s, userID, "adherence", monthWindow(current, current), func(snap analytics.Snapshot) analytics.AdherenceReport {
		return analytics.Adherence(snap, today)
	})
}

// CompareMonths compares the current month with the previous one.
func (s *analyticsService) CompareMonths(userID string) (*analytics.Comparison, error) {
	today := s.Today()
	current := analytics.MonthOf(today)
	return compute(s, userID, "month_comparison", monthWindow(current.AddMonths(-1), current), func(snap analytics.Snapshot) analytics.Comparison {
		return analytics.CompareMonths(snap, today)
	})
}

// Statistics describes the current month's expenses.
func (s *analyticsService) Statistics(userID string) (*analytics.Stats, error) {
	today := s.Today()
	current := analytics.MonthOf(today)
	return compute(s, userID, "statistics", monthWindow(current, current), func(snap analytics.Snapshot) analytics.Stats {
		return analytics.Statistics(snap, today)
	})
}
