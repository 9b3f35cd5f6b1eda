package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"spendwise/internal/analytics"
	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
)

const (
	budgetPastMonths   = 12
	budgetFutureMonths = 24
)

// MaxAmount is the largest amount a budget or expense may hold.
var MaxAmount = decimal.RequireFromString("9999999.99")

// budgetService handles budget-related business logic.
type budgetService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db, now: time.Now}
}

// validateAmount enforces 0 < amount <= MaxAmount with at most two places.
func validateAmount(amount decimal.Decimal, what string) error {
	if !amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, what+" must be greater than zero")
	}
	if amount.GreaterThan(MaxAmount) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, what+" exceeds maximum allowed value")
	}
	if !amount.Equal(amount.Round(2)) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, what+" cannot have more than two decimal places")
	}
	return nil
}

// validateBudgetMonth allows months from 12 before to 24 after the current one.
func (s *budgetService) validateBudgetMonth(month analytics.Month) error {
	current := analytics.MonthOf(s.now())
	if month.Before(current.AddMonths(-budgetPastMonths)) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot create budgets for dates older than 12 months")
	}
	if current.AddMonths(budgetFutureMonths).Before(month) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot create budgets more than 24 months in the future")
	}
	return nil
}

func (s *budgetService) requireCategory(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func (s *budgetService) ensureNoDuplicate(userID, categoryID string, month analytics.Month, excludeID string) error {
	q := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ? AND month = ?", userID, categoryID, month.Start())
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateBudget
	}
	return nil
}

// ensureWithinLimit applies the user's optional monthly_budget_limit to the
// month's total after the change.
func (s *budgetService) ensureWithinLimit(userID string, month analytics.Month, amount decimal.Decimal, excludeID string) error {
	var settings models.UserSettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if settings.MonthlyBudgetLimit == nil {
		return nil
	}

	q := s.db.Model(&models.Budget{}).Where("user_id = ? AND month = ?", userID, month.Start())
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var others []models.Budget
	if err := q.Find(&others).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := amount
	for _, b := range others {
		total = total.Add(b.Amount)
	}
	if total.GreaterThan(*settings.MonthlyBudgetLimit) {
		return apperrors.WithMessage(apperrors.ErrBudgetLimitExceeded,
			"total budgets for "+month.String()+" would exceed the monthly limit of "+settings.MonthlyBudgetLimit.StringFixed(2))
	}
	return nil
}

// CreateBudget creates a budget for a category and month.
func (s *budgetService) CreateBudget(userID, categoryID string, month analytics.Month, amount decimal.Decimal) (*models.Budget, error) {
	if err := validateAmount(amount, "budget amount"); err != nil {
		return nil, err
	}
	if err := s.validateBudgetMonth(month); err != nil {
		return nil, err
	}
	category, err := s.requireCategory(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoDuplicate(userID, categoryID, month, ""); err != nil {
		return nil, err
	}
	if err := s.ensureWithinLimit(userID, month, amount, ""); err != nil {
		return nil, err
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Month:      month.Start(),
		Amount:     amount.Round(2),
	}
	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.Category = *category
	return budget, nil
}

// GetUserBudgets returns a page of budgets, newest month first, with the total of all matches.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest, filter BudgetFilter) (*BudgetList, error) {
	page.Defaults()

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("budgets.user_id = ?", userID)
		if filter.Month != nil {
			db = db.Where("budgets.month = ?", filter.Month.Start())
		}
		if filter.CategoryID != nil && strings.TrimSpace(*filter.CategoryID) != "" {
			db = db.Where("budgets.category_id = ?", *filter.CategoryID)
		}
		return db
	}

	var all []models.Budget
	if err := s.db.Model(&models.Budget{}).Scopes(scope).Select("amount").Find(&all).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	total := decimal.Zero
	for _, b := range all {
		total = total.Add(b.Amount)
	}

	var budgets []models.Budget
	err := s.db.Model(&models.Budget{}).Scopes(scope).
		Joins("Category").
		Order("budgets.month DESC").Order("LOWER(\"Category\".\"name\") ASC").
		Scopes(pagination.Paginate(page)).
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &BudgetList{
		PageResponse: pagination.NewPageResponse(budgets, page.Page, page.PageSize, int64(len(all))),
		TotalBudget:  analytics.NewFixed(total),
	}, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget changes amount, category or month, re-checking every constraint.
func (s *budgetService) UpdateBudget(userID, budgetID string, in BudgetUpdate) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	categoryID := budget.CategoryID
	month := analytics.MonthOf(budget.Month)
	amount := budget.Amount
	updates := make(map[string]interface{})

	if in.Amount != nil {
		if err := validateAmount(*in.Amount, "budget amount"); err != nil {
			return nil, err
		}
		amount = in.Amount.Round(2)
		updates["amount"] = amount
	}
	if in.Month != nil && *in.Month != month {
		if err := s.validateBudgetMonth(*in.Month); err != nil {
			return nil, err
		}
		month = *in.Month
		updates["month"] = month.Start()
	}
	if in.CategoryID != nil && *in.CategoryID != categoryID {
		category, err := s.requireCategory(userID, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		categoryID = category.ID
		budget.Category = *category
		updates["category_id"] = categoryID
	}
	if len(updates) == 0 {
		return budget, nil
	}

	if err := s.ensureNoDuplicate(userID, categoryID, month, budget.ID); err != nil {
		return nil, err
	}
	if err := s.ensureWithinLimit(userID, month, amount, budget.ID); err != nil {
		return nil, err
	}

	if err := s.db.Model(budget).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.CategoryID = categoryID
	budget.Month = month.Start()
	budget.Amount = amount
	return budget, nil
}

// DeleteBudget removes a budget. Expenses are untouched.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	result := s.db.Where("id = ? AND user_id = ?", budgetID, userID).Delete(&models.Budget{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}
