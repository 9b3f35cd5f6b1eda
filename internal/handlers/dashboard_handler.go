package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spendwise/internal/analytics"
	apperrors "spendwise/internal/errors"
	"spendwise/internal/services"
)

// DashboardHandler serves the read-only analytics endpoints.
type DashboardHandler struct {
	analyticsService services.AnalyticsServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(analyticsService services.AnalyticsServicer) *DashboardHandler {
	return &DashboardHandler{analyticsService: analyticsService}
}

// TrendsResponse wraps a trend series with the parameters that produced it.
type TrendsResponse struct {
	Period analytics.Period `json:"period"`
	Months int              `json:"months,omitempty"`
	Data   interface{}      `json:"data"`
}

// GetSummary returns the dashboard summary for a month
// @Summary     Dashboard summary
// @Description Totals, per-category utilization, recent expenses and spending health for a month
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM), defaults to the current month"
// @Success     200 {object} analytics.Dashboard
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     500 {object} ErrorResponse "Analytics failed"
// @Router      /dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	month, err := queryMonth(c, h.analyticsService.Today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	dashboard, err := h.analyticsService.Dashboard(userID, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetTrends returns the monthly or weekly spending series
// @Summary     Spending trends
// @Description Monthly mode covers the last N months (1 to 24, default 6) with budget totals. Weekly mode covers the last 8 weeks.
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       period query string false "monthly (default) or weekly"
// @Param       months query int    false "Months of history for monthly mode"
// @Success     200 {object} TrendsResponse
// @Failure     400 {object} ErrorResponse "Invalid period or months"
// @Router      /dashboard/analytics/trends [get]
func (h *DashboardHandler) GetTrends(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	period, err := analytics.ParsePeriod(c.Query("period"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if period == analytics.PeriodWeekly {
		points, err := h.analyticsService.WeeklyTrends(userID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, TrendsResponse{Period: period, Data: points})
		return
	}

	months, err := analytics.ParseTrendMonths(c.Query("months"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	points, err := h.analyticsService.MonthlyTrends(userID, months)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, TrendsResponse{Period: period, Months: months, Data: points})
}

// GetCategoryBreakdown returns spend per category for a month
// @Summary     Category breakdown
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       month          query string false "Month (YYYY-MM), defaults to the current month"
// @Param       include_budget query bool   false "Include budget figures per category (default true)"
// @Success     200 {object} analytics.Breakdown
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /dashboard/analytics/category-breakdown [get]
func (h *DashboardHandler) GetCategoryBreakdown(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	month, err := queryMonth(c, h.analyticsService.Today())
	if err != nil {
		respondWithError(c, err)
		return
	}
	includeBudget := true
	if raw := c.Query("include_budget"); raw != "" {
		if includeBudget, err = strconv.ParseBool(raw); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "include_budget must be true or false"))
			return
		}
	}

	breakdown, err := h.analyticsService.CategoryBreakdown(userID, month, includeBudget)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// GetBudgetAdherence scores how well the current month's budgets are kept
// @Summary     Budget adherence
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} analytics.AdherenceReport
// @Router      /dashboard/analytics/budget-adherence [get]
func (h *DashboardHandler) GetBudgetAdherence(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.analyticsService.Adherence(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetMonthComparison compares this month's spend with last month's
// @Summary     Month comparison
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} analytics.Comparison
// @Router      /dashboard/analytics/month-comparison [get]
func (h *DashboardHandler) GetMonthComparison(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	comparison, err := h.analyticsService.CompareMonths(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, comparison)
}

// GetStatistics returns summary statistics for the current month
// @Summary     Spending statistics
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} analytics.Stats
// @Router      /dashboard/analytics/statistics [get]
func (h *DashboardHandler) GetStatistics(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.analyticsService.Statistics(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
