package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spendwise/internal/analytics"
	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/services"
)

const testBudgetID = "0190c3a4-5b6e-7c8d-9e0f-000000000002"

// --- mock budget service ---

type mockBudgetService struct {
	createBudgetFn   func(userID, categoryID string, month analytics.Month, amount decimal.Decimal) (*models.Budget, error)
	getUserBudgetsFn func(userID string, page pagination.PageRequest, filter services.BudgetFilter) (*services.BudgetList, error)
	getBudgetByIDFn  func(userID, budgetID string) (*models.Budget, error)
	updateBudgetFn   func(userID, budgetID string, in services.BudgetUpdate) (*models.Budget, error)
	deleteBudgetFn   func(userID, budgetID string) error
}

func (m *mockBudgetService) CreateBudget(userID, categoryID string, month analytics.Month, amount decimal.Decimal) (*models.Budget, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(userID, categoryID, month, amount)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetUserBudgets(userID string, page pagination.PageRequest, filter services.BudgetFilter) (*services.BudgetList, error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(userID, page, filter)
	}
	return &services.BudgetList{PageResponse: pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)}, nil
}

func (m *mockBudgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(userID, budgetID)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) UpdateBudget(userID, budgetID string, in services.BudgetUpdate) (*models.Budget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(userID, budgetID, in)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) DeleteBudget(userID, budgetID string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(userID, budgetID)
	}
	return nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

// --- mock analytics service ---

type mockAnalyticsService struct {
	today               time.Time
	utilizationFn       func(userID string, month analytics.Month) (*analytics.UtilizationReport, error)
	dashboardFn         func(userID string, month analytics.Month) (*analytics.Dashboard, error)
	categoryBreakdownFn func(userID string, month analytics.Month, includeBudget bool) (*analytics.Breakdown, error)
	monthlyTrendsFn     func(userID string, months int) ([]analytics.MonthlyPoint, error)
	weeklyTrendsFn      func(userID string) ([]analytics.WeeklyPoint, error)
	adherenceFn         func(userID string) (*analytics.AdherenceReport, error)
	compareMonthsFn     func(userID string) (*analytics.Comparison, error)
	statisticsFn        func(userID string) (*analytics.Stats, error)
}

func (m *mockAnalyticsService) Today() time.Time {
	if m.today.IsZero() {
		return time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	}
	return m.today
}

func (m *mockAnalyticsService) Utilization(userID string, month analytics.Month) (*analytics.UtilizationReport, error) {
	if m.utilizationFn != nil {
		return m.utilizationFn(userID, month)
	}
	return &analytics.UtilizationReport{Month: month, Data: []analytics.UtilizationRow{}}, nil
}

func (m *mockAnalyticsService) Dashboard(userID string, month analytics.Month) (*analytics.Dashboard, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(userID, month)
	}
	return &analytics.Dashboard{}, nil
}

func (m *mockAnalyticsService) CategoryBreakdown(userID string, month analytics.Month, includeBudget bool) (*analytics.Breakdown, error) {
	if m.categoryBreakdownFn != nil {
		return m.categoryBreakdownFn(userID, month, includeBudget)
	}
	return &analytics.Breakdown{Month: month, Data: []analytics.BreakdownRow{}}, nil
}

func (m *mockAnalyticsService) MonthlyTrends(userID string, months int) ([]analytics.MonthlyPoint, error) {
	if m.monthlyTrendsFn != nil {
		return m.monthlyTrendsFn(userID, months)
	}
	return []analytics.MonthlyPoint{}, nil
}

func (m *mockAnalyticsService) WeeklyTrends(userID string) ([]analytics.WeeklyPoint, error) {
	if m.weeklyTrendsFn != nil {
		return m.weeklyTrendsFn(userID)
	}
	return []analytics.WeeklyPoint{}, nil
}

func (m *mockAnalyticsService) Adherence(userID string) (*analytics.AdherenceReport, error) {
	if m.adherenceFn != nil {
		return m.adherenceFn(userID)
	}
	return &analytics.AdherenceReport{}, nil
}

func (m *mockAnalyticsService) CompareMonths(userID string) (*analytics.Comparison, error) {
	if m.compareMonthsFn != nil {
		return m.compareMonthsFn(userID)
	}
	return &analytics.Comparison{}, nil
}

func (m *mockAnalyticsService) Statistics(userID string) (*analytics.Stats, error) {
	if m.statisticsFn != nil {
		return m.statisticsFn(userID)
	}
	return &analytics.Stats{}, nil
}

var _ services.AnalyticsServicer = (*mockAnalyticsService)(nil)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/budgets", handler.CreateBudget)
	auth.GET("/budgets", handler.GetBudgets)
	auth.GET("/budgets/utilization", handler.GetUtilization)
	auth.GET("/budgets/:id", handler.GetBudget)
	auth.PUT("/budgets/:id", handler.UpdateBudget)
	auth.DELETE("/budgets/:id", handler.DeleteBudget)
	return r
}

func TestBudgetHandler_CreateBudget(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			createBudgetFn: func(userID, categoryID string, month analytics.Month, amount decimal.Decimal) (*models.Budget, error) {
				if month != (analytics.Month{Year: 2026, Month: time.March}) {
					t.Errorf("expected 2026-03, got %v", month)
				}
				if !amount.Equal(decimal.RequireFromString("450.00")) {
					t.Errorf("expected 450.00, got %s", amount)
				}
				return &models.Budget{
					Base:       models.Base{ID: testBudgetID},
					UserID:     userID,
					CategoryID: categoryID,
					Month:      month.Start(),
					Amount:     amount,
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAnalyticsService{}, audit))

		rec := doRequest(r, "POST", "/budgets",
			`{"category_id":"`+testCategoryID+`","month":"2026-03","amount":"450.00"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["amount"] != "450" && budget["amount"] != "450.00" {
			t.Errorf("unexpected amount %v", budget["amount"])
		}
		if len(audit.actions) != 1 || audit.actions[0] != "CREATE_BUDGET" {
			t.Errorf("expected CREATE_BUDGET audit entry, got %v", audit.actions)
		}
	})

	t.Run("accepts a numeric amount", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAnalyticsService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/budgets",
			`{"category_id":"`+testCategoryID+`","month":"2026-03","amount":450.5}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	bad := map[string]string{
		"missing amount":   `{"category_id":"` + testCategoryID + `","month":"2026-03"}`,
		"bad month":        `{"category_id":"` + testCategoryID + `","month":"2026-13","amount":"10"}`,
		"month with day":   `{"category_id":"` + testCategoryID + `","month":"2026-03-01","amount":"10"}`,
		"bad category id":  `{"category_id":"abc","month":"2026-03","amount":"10"}`,
		"non-numeric body": `{"category_id":"` + testCategoryID + `","month":"2026-03","amount":"ten"}`,
	}
	for name, body := range bad {
		t.Run("returns 400 on "+name, func(t *testing.T) {
			r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAnalyticsService{}, &mockAuditService{}))

			rec := doRequest(r, "POST", "/budgets", body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}

	t.Run("returns 409 on duplicate", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			createBudgetFn: func(string, string, analytics.Month, decimal.Decimal) (*models.Budget, error) {
				return nil, apperrors.ErrDuplicateBudget
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAnalyticsService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/budgets",
			`{"category_id":"`+testCategoryID+`","month":"2026-03","amount":"10"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_BUDGET")
	})
}

func TestBudgetHandler_GetBudgets(t *testing.T) {
	t.Run("applies filters and returns the total", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getUserBudgetsFn: func(_ string, _ pagination.PageRequest, filter services.BudgetFilter) (*services.BudgetList, error) {
				if filter.Month == nil || filter.Month.String() != "2026-02" {
					t.Errorf("expected month filter 2026-02, got %v", filter.Month)
				}
				if filter.CategoryID == nil || *filter.CategoryID != testCategoryID {
					t.Errorf("expected category filter, got %v", filter.CategoryID)
				}
				return &services.BudgetList{
					PageResponse: pagination.NewPageResponse([]models.Budget{{Amount: decimal.NewFromInt(100)}}, 1, 20, 1),
					TotalBudget:  analytics.NewFixed(decimal.NewFromInt(100)),
				}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAnalyticsService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets?month=2026-02&category_id="+testCategoryID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["total_budget"] != "100.00" {
			t.Errorf("expected total_budget 100.00, got %v", result["total_budget"])
		}
		if result["total_items"] != float64(1) {
			t.Errorf("expected 1 item, got %v", result["total_items"])
		}
	})

	t.Run("returns 400 on bad month", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAnalyticsService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets?month=March", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	t.Run("returns 404 on malformed id", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAnalyticsService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/not-a-uuid", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})

	t.Run("returns 404 from service", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			getBudgetByIDFn: func(_, _ string) (*models.Budget, error) { return nil, apperrors.ErrBudgetNotFound },
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAnalyticsService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_UpdateBudget(t *testing.T) {
	t.Run("forwards month and amount", func(t *testing.T) {
		var got services.BudgetUpdate
		budgetSvc := &mockBudgetService{
			updateBudgetFn: func(_, id string, in services.BudgetUpdate) (*models.Budget, error) {
				got = in
				return &models.Budget{Base: models.Base{ID: id}, Amount: *in.Amount}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAnalyticsService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID, `{"month":"2026-04","amount":"75.25"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Month == nil || got.Month.String() != "2026-04" {
			t.Errorf("expected month 2026-04, got %v", got.Month)
		}
		if got.CategoryID != nil {
			t.Errorf("expected no category change, got %v", *got.CategoryID)
		}
	})

	t.Run("returns limit error from service", func(t *testing.T) {
		budgetSvc := &mockBudgetService{
			updateBudgetFn: func(string, string, services.BudgetUpdate) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetLimitExceeded
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(budgetSvc, &mockAnalyticsService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID, `{"amount":"99999"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_LIMIT_EXCEEDED")
	})
}

func TestBudgetHandler_DeleteBudget(t *testing.T) {
	audit := &mockAuditService{}
	r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAnalyticsService{}, audit))

	rec := doRequest(r, "DELETE", "/budgets/"+testBudgetID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(audit.actions) != 1 || audit.actions[0] != "DELETE_BUDGET" {
		t.Errorf("expected DELETE_BUDGET audit entry, got %v", audit.actions)
	}
}

func TestBudgetHandler_GetUtilization(t *testing.T) {
	t.Run("defaults to the current month", func(t *testing.T) {
		analyticsSvc := &mockAnalyticsService{
			utilizationFn: func(_ string, month analytics.Month) (*analytics.UtilizationReport, error) {
				if month.String() != "2026-03" {
					t.Errorf("expected 2026-03, got %s", month)
				}
				return &analytics.UtilizationReport{Message: analytics.NoBudgetsMessage, Month: month, Data: []analytics.UtilizationRow{}}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, analyticsSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/utilization", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["message"] != analytics.NoBudgetsMessage {
			t.Errorf("expected empty-state message, got %v", result["message"])
		}
	})

	t.Run("uses the month parameter", func(t *testing.T) {
		var got analytics.Month
		analyticsSvc := &mockAnalyticsService{
			utilizationFn: func(_ string, month analytics.Month) (*analytics.UtilizationReport, error) {
				got = month
				return &analytics.UtilizationReport{Month: month}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, analyticsSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/utilization?month=2025-12", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.String() != "2025-12" {
			t.Errorf("expected 2025-12, got %s", got)
		}
	})

	t.Run("returns 400 on malformed month", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAnalyticsService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/utilization?month=2025/12", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 500 when analytics fail", func(t *testing.T) {
		analyticsSvc := &mockAnalyticsService{
			utilizationFn: func(string, analytics.Month) (*analytics.UtilizationReport, error) {
				return nil, apperrors.ErrAnalyticsFailed
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, analyticsSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/utilization", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ANALYTICS_FAILED")
	})
}
