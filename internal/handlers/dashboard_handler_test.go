package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spendwise/internal/analytics"
	apperrors "spendwise/internal/errors"
)

func setupDashboardRouter(handler *DashboardHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("/dashboard", injectUserID(testUserID))
	auth.GET("/summary", handler.GetSummary)
	auth.GET("/analytics/trends", handler.GetTrends)
	auth.GET("/analytics/category-breakdown", handler.GetCategoryBreakdown)
	auth.GET("/analytics/budget-adherence", handler.GetBudgetAdherence)
	auth.GET("/analytics/month-comparison", handler.GetMonthComparison)
	auth.GET("/analytics/statistics", handler.GetStatistics)
	return r
}

func TestDashboardHandler_GetSummary(t *testing.T) {
	t.Run("passes the month through", func(t *testing.T) {
		var got analytics.Month
		svc := &mockAnalyticsService{
			dashboardFn: func(_ string, month analytics.Month) (*analytics.Dashboard, error) {
				got = month
				return &analytics.Dashboard{Currency: "INR"}, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc))

		rec := doRequest(r, "GET", "/dashboard/summary?month=2026-01", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.String() != "2026-01" {
			t.Errorf("expected 2026-01, got %s", got)
		}
		if parseJSON(t, rec)["currency"] != "INR" {
			t.Error("expected currency in response")
		}
	})

	t.Run("returns 400 on malformed month", func(t *testing.T) {
		r := setupDashboardRouter(NewDashboardHandler(&mockAnalyticsService{}))

		rec := doRequest(r, "GET", "/dashboard/summary?month=2026-1x", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("hides internal causes", func(t *testing.T) {
		svc := &mockAnalyticsService{
			dashboardFn: func(string, analytics.Month) (*analytics.Dashboard, error) {
				return nil, apperrors.Wrap(apperrors.ErrAnalyticsFailed, errors.New("pq: connection reset"))
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc))

		rec := doRequest(r, "GET", "/dashboard/summary", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "ANALYTICS_FAILED")
		msg := result["error"].(map[string]interface{})["message"]
		if msg != apperrors.ErrAnalyticsFailed.Message {
			t.Errorf("expected generic message, got %v", msg)
		}
	})
}

func TestDashboardHandler_GetTrends(t *testing.T) {
	t.Run("monthly is the default with six months", func(t *testing.T) {
		var gotMonths int
		svc := &mockAnalyticsService{
			monthlyTrendsFn: func(_ string, months int) ([]analytics.MonthlyPoint, error) {
				gotMonths = months
				return []analytics.MonthlyPoint{{Period: "Mar 2026", Expenses: analytics.NewFixed(decimal.NewFromInt(10))}}, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc))

		rec := doRequest(r, "GET", "/dashboard/analytics/trends", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotMonths != analytics.DefaultTrendMonths {
			t.Errorf("expected %d months, got %d", analytics.DefaultTrendMonths, gotMonths)
		}
		result := parseJSON(t, rec)
		if result["period"] != "monthly" {
			t.Errorf("expected monthly period, got %v", result["period"])
		}
		data := result["data"].([]interface{})
		if data[0].(map[string]interface{})["expenses"] != "10.00" {
			t.Errorf("expected fixed two decimal expenses, got %v", data[0])
		}
	})

	t.Run("clamps months", func(t *testing.T) {
		var gotMonths int
		svc := &mockAnalyticsService{
			monthlyTrendsFn: func(_ string, months int) ([]analytics.MonthlyPoint, error) {
				gotMonths = months
				return nil, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc))

		rec := doRequest(r, "GET", "/dashboard/analytics/trends?months=99", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotMonths != analytics.MaxTrendMonths {
			t.Errorf("expected %d, got %d", analytics.MaxTrendMonths, gotMonths)
		}
	})

	t.Run("weekly ignores months", func(t *testing.T) {
		called := false
		svc := &mockAnalyticsService{
			weeklyTrendsFn: func(string) ([]analytics.WeeklyPoint, error) {
				called = true
				return []analytics.WeeklyPoint{}, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc))

		rec := doRequest(r, "GET", "/dashboard/analytics/trends?period=weekly&months=abc", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !called {
			t.Error("expected weekly series to be computed")
		}
	})

	for name, path := range map[string]string{
		"unknown period":     "/dashboard/analytics/trends?period=daily",
		"non-integer months": "/dashboard/analytics/trends?months=six",
	} {
		t.Run("returns 400 on "+name, func(t *testing.T) {
			r := setupDashboardRouter(NewDashboardHandler(&mockAnalyticsService{}))

			rec := doRequest(r, "GET", path, "")

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}
}

func TestDashboardHandler_GetCategoryBreakdown(t *testing.T) {
	t.Run("include_budget is forwarded", func(t *testing.T) {
		var gotInclude bool
		svc := &mockAnalyticsService{
			categoryBreakdownFn: func(_ string, month analytics.Month, include bool) (*analytics.Breakdown, error) {
				gotInclude = include
				return &analytics.Breakdown{Month: month}, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc))

		rec := doRequest(r, "GET", "/dashboard/analytics/category-breakdown?include_budget=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !gotInclude {
			t.Error("expected include_budget to be true")
		}
	})

	t.Run("include_budget defaults to true", func(t *testing.T) {
		gotInclude := false
		svc := &mockAnalyticsService{
			categoryBreakdownFn: func(_ string, month analytics.Month, include bool) (*analytics.Breakdown, error) {
				gotInclude = include
				return &analytics.Breakdown{Month: month}, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc))

		rec := doRequest(r, "GET", "/dashboard/analytics/category-breakdown", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !gotInclude {
			t.Error("expected include_budget to default to true")
		}
	})

	t.Run("include_budget=false is honoured", func(t *testing.T) {
		gotInclude := true
		svc := &mockAnalyticsService{
			categoryBreakdownFn: func(_ string, month analytics.Month, include bool) (*analytics.Breakdown, error) {
				gotInclude = include
				return &analytics.Breakdown{Month: month}, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc))

		rec := doRequest(r, "GET", "/dashboard/analytics/category-breakdown?include_budget=false", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotInclude {
			t.Error("expected include_budget to be false")
		}
	})

	t.Run("returns 400 on bad include_budget", func(t *testing.T) {
		r := setupDashboardRouter(NewDashboardHandler(&mockAnalyticsService{}))

		rec := doRequest(r, "GET", "/dashboard/analytics/category-breakdown?include_budget=maybe", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestDashboardHandler_CurrentMonthReports(t *testing.T) {
	svc := &mockAnalyticsService{
		adherenceFn: func(string) (*analytics.AdherenceReport, error) {
			return &analytics.AdherenceReport{OverallScore: 88, Grade: analytics.GradeFor(88)}, nil
		},
		compareMonthsFn: func(string) (*analytics.Comparison, error) {
			return &analytics.Comparison{Comparison: analytics.ComparisonSummary{
				Difference:    analytics.NewFixed(decimal.NewFromInt(200)),
				PercentChange: analytics.NewFixed(decimal.NewFromInt(50)),
				Trend:         analytics.DirectionOf(decimal.NewFromInt(200)),
			}}, nil
		},
		statisticsFn: func(string) (*analytics.Stats, error) {
			return &analytics.Stats{Count: 3, Total: analytics.NewFixed(decimal.RequireFromString("30.5"))}, nil
		},
	}
	r := setupDashboardRouter(NewDashboardHandler(svc))

	t.Run("adherence", func(t *testing.T) {
		rec := doRequest(r, "GET", "/dashboard/analytics/budget-adherence", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["overall_score"] != float64(88) {
			t.Error("expected overall_score 88")
		}
	})

	t.Run("month comparison", func(t *testing.T) {
		rec := doRequest(r, "GET", "/dashboard/analytics/month-comparison", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		cmp := parseJSON(t, rec)["comparison"].(map[string]interface{})
		if cmp["percent_change"] != "50.00" || cmp["trend"] != "increased" {
			t.Errorf("unexpected comparison %v", cmp)
		}
	})

	t.Run("statistics", func(t *testing.T) {
		rec := doRequest(r, "GET", "/dashboard/analytics/statistics", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["total"] != "30.50" {
			t.Error("expected total 30.50")
		}
	})
}
