package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/analytics"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
)

// RegisterInput carries a sign-up request. FullName is split on the first space.
type RegisterInput struct {
	FullName string
	Username string
	Email    string
	Password string
}

// ProfileUpdate holds the optional profile fields to change.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Username  *string
}

// UserServicer defines identity, email verification and password reset.
type UserServicer interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	VerifyEmailOTP(email, code string) (*models.User, error)
	ResendVerification(ctx context.Context, email string) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	UpdateProfile(userID string, in ProfileUpdate) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyPasswordResetOTP(email, code string) error
	ConfirmPasswordReset(email, newPassword string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// BudgetFilter narrows a budget listing.
type BudgetFilter struct {
	Month      *analytics.Month
	CategoryID *string
}

// BudgetUpdate holds the optional budget fields to change.
type BudgetUpdate struct {
	CategoryID *string
	Month      *analytics.Month
	Amount     *decimal.Decimal
}

// BudgetList is a page of budgets plus the sum over every matching budget.
type BudgetList struct {
	pagination.PageResponse[models.Budget]
	TotalBudget analytics.Fixed `json:"total_budget"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID, categoryID string, month analytics.Month, amount decimal.Decimal) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, filter BudgetFilter) (*BudgetList, error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, in BudgetUpdate) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
}

// ExpenseInput is a new expense. Zero ExpenseType means variable.
type ExpenseInput struct {
	CategoryID  *string
	Amount      decimal.Decimal
	Date        time.Time
	Notes       string
	ExpenseType models.ExpenseType
	IsRecurring bool
	DueDate     *time.Time
	AutoPay     bool
}

// ExpenseUpdate holds the optional expense fields to change. A CategoryID
// pointing at "" clears the category.
type ExpenseUpdate struct {
	CategoryID  *string
	Amount      *decimal.Decimal
	Date        *time.Time
	Notes       *string
	ExpenseType *models.ExpenseType
	IsRecurring *bool
	DueDate     *time.Time
	AutoPay     *bool
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	Search     string
	CategoryID *string
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	From       *time.Time
	To         *time.Time
	SortBy     string
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	CreateExpense(userID string, in ExpenseInput) (*models.Expense, error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	UpdateExpense(userID, expenseID string, in ExpenseUpdate) (*models.Expense, error)
	DeleteExpense(userID, expenseID string) error
	GetExpensesInRange(userID string, from, to time.Time) ([]models.Expense, error)
}

// SettingsUpdate holds the optional settings to change.
type SettingsUpdate struct {
	Currency           *string
	MonthlyBudgetLimit *decimal.Decimal
	ClearBudgetLimit   bool
}

// SettingsServicer defines the contract for user preferences.
type SettingsServicer interface {
	GetSettings(userID string) (*models.UserSettings, error)
	UpdateSettings(userID string, in SettingsUpdate) (*models.UserSettings, error)
	Currencies() []models.Currency
}

// ContactInput is a public contact form submission.
type ContactInput struct {
	FullName  string
	Email     string
	Subject   string
	Message   string
	IPAddress string
	UserAgent string
}

// ContactServicer defines the contract for the contact form.
type ContactServicer interface {
	Submit(in ContactInput) (*models.ContactMessage, error)
	ListMessages(page pagination.PageRequest) (*pagination.PageResponse[models.ContactMessage], error)
}

// AnalyticsServicer loads a user's data and runs the aggregation engine on it.
type AnalyticsServicer interface {
	Today() time.Time
	Utilization(userID string, month analytics.Month) (*analytics.UtilizationReport, error)
	Dashboard(userID string, month analytics.Month) (*analytics.Dashboard, error)
	CategoryBreakdown(userID string, month analytics.Month, includeBudget bool) (*analytics.Breakdown, error)
	MonthlyTrends(userID string, months int) ([]analytics.MonthlyPoint, error)
	WeeklyTrends(userID string) ([]analytics.WeeklyPoint, error)
	Adherence(userID string) (*analytics.AdherenceReport, error)
	CompareMonths(userID string) (*analytics.Comparison, error)
	Statistics(userID string) (*analytics.Stats, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
