package services

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"spendwise/internal/analytics"
	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
)

const (
	maxSearchLength = 255
	maxNotesLength  = 255
)

// expenseSorts maps the accepted sort_by values to ORDER BY clauses.
var expenseSorts = map[string]string{
	"date":        "expenses.date ASC, expenses.created_at ASC",
	"-date":       "expenses.date DESC, expenses.created_at DESC",
	"amount":      "expenses.amount ASC, expenses.date DESC",
	"-amount":     "expenses.amount DESC, expenses.date DESC",
	"created_at":  "expenses.created_at ASC",
	"-created_at": "expenses.created_at DESC",
}

const defaultExpenseSort = "-date"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// expenseService handles expense-related business logic.
type expenseService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB) ExpenseServicer {
	return &expenseService{db: db, now: time.Now}
}

func (s *expenseService) validateDate(date time.Time) error {
	if date.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	if analytics.Day(date).After(analytics.Day(s.now())) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "expense date cannot be in the future")
	}
	return nil
}

func validateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "notes cannot exceed 255 characters")
	}
	return nil
}

func validateExpenseType(t models.ExpenseType) error {
	if t != models.ExpenseTypeFixed && t != models.ExpenseTypeVariable {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "expense_type must be fixed or variable")
	}
	return nil
}

func (s *expenseService) ownedCategory(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// CreateExpense records a new expense dated today or earlier.
func (s *expenseService) CreateExpense(userID string, in ExpenseInput) (*models.Expense, error) {
	if err := validateAmount(in.Amount, "amount"); err != nil {
		return nil, err
	}
	if err := s.validateDate(in.Date); err != nil {
		return nil, err
	}
	notes := strings.TrimSpace(in.Notes)
	if err := validateNotes(notes); err != nil {
		return nil, err
	}
	if in.ExpenseType == "" {
		in.ExpenseType = models.ExpenseTypeVariable
	}
	if err := validateExpenseType(in.ExpenseType); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID:      userID,
		Amount:      in.Amount.Round(2),
		Date:        analytics.Day(in.Date),
		Notes:       notes,
		ExpenseType: in.ExpenseType,
		IsRecurring: in.IsRecurring,
		AutoPay:     in.AutoPay,
	}
	if in.DueDate != nil {
		due := analytics.Day(*in.DueDate)
		expense.DueDate = &due
	}
	if in.CategoryID != nil && *in.CategoryID != "" {
		category, err := s.ownedCategory(userID, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		expense.CategoryID = &category.ID
		expense.Category = category
	}

	if err := s.db.Omit("Category").Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// GetExpenseByID retrieves an expense owned by the user.
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// validateExpenseFilter checks the filter bounds before any query runs.
func validateExpenseFilter(f ExpenseFilter) error {
	if utf8.RuneCountInString(f.Search) > maxSearchLength {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "search term cannot exceed 255 characters")
	}
	if f.MinAmount != nil && f.MinAmount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount_min cannot be negative")
	}
	if f.MaxAmount != nil && f.MaxAmount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount_max cannot be negative")
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.GreaterThan(*f.MaxAmount) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount_min cannot be greater than amount_max")
	}
	if (f.From == nil) != (f.To == nil) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "from and to must be provided together")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "from cannot be after to")
	}
	return nil
}

// applyExpenseFilters narrows q, which must already join categories.
func applyExpenseFilters(q *gorm.DB, f ExpenseFilter) *gorm.DB {
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		cond := "LOWER(expenses.notes) LIKE ? ESCAPE '\\' OR LOWER(categories.name) LIKE ? ESCAPE '\\'"
		args := []interface{}{pattern, pattern}
		if amount, err := decimal.NewFromString(term); err == nil {
			cond += " OR expenses.amount = ?"
			args = append(args, amount)
		}
		q = q.Where("("+cond+")", args...)
	}
	if f.CategoryID != nil && *f.CategoryID != "" {
		q = q.Where("expenses.category_id = ?", *f.CategoryID)
	}
	if f.MinAmount != nil {
		q = q.Where("expenses.amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("expenses.amount <= ?", *f.MaxAmount)
	}
	if f.From != nil {
		q = q.Where("expenses.date >= ?", analytics.Day(*f.From))
	}
	if f.To != nil {
		q = q.Where("expenses.date <= ?", analytics.Day(*f.To))
	}
	return q
}

// GetUserExpenses returns a filtered, sorted page of the user's expenses.
func (s *expenseService) GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	if err := validateExpenseFilter(filter); err != nil {
		return nil, err
	}
	page.Defaults()

	order, ok := expenseSorts[filter.SortBy]
	if !ok {
		order = expenseSorts[defaultExpenseSort]
	}

	base := s.db.Model(&models.Expense{}).
		Joins("LEFT JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id = ?", userID)
	base = applyExpenseFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	err := base.Select("expenses.*").
		Preload("Category").
		Order(order).
		Scopes(pagination.Paginate(page)).
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateExpense applies a partial update.
func (s *expenseService) UpdateExpense(userID, expenseID string, in ExpenseUpdate) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Amount != nil {
		if err := validateAmount(*in.Amount, "amount"); err != nil {
			return nil, err
		}
		expense.Amount = in.Amount.Round(2)
		updates["amount"] = expense.Amount
	}
	if in.Date != nil {
		if err := s.validateDate(*in.Date); err != nil {
			return nil, err
		}
		expense.Date = analytics.Day(*in.Date)
		updates["date"] = expense.Date
	}
	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		if err := validateNotes(notes); err != nil {
			return nil, err
		}
		expense.Notes = notes
		updates["notes"] = notes
	}
	if in.ExpenseType != nil {
		if err := validateExpenseType(*in.ExpenseType); err != nil {
			return nil, err
		}
		expense.ExpenseType = *in.ExpenseType
		updates["expense_type"] = expense.ExpenseType
	}
	if in.IsRecurring != nil {
		expense.IsRecurring = *in.IsRecurring
		updates["is_recurring"] = expense.IsRecurring
	}
	if in.DueDate != nil {
		due := analytics.Day(*in.DueDate)
		expense.DueDate = &due
		updates["due_date"] = due
	}
	if in.AutoPay != nil {
		expense.AutoPay = *in.AutoPay
		updates["auto_pay"] = expense.AutoPay
	}
	if in.CategoryID != nil {
		if *in.CategoryID == "" {
			expense.CategoryID = nil
			expense.Category = nil
			updates["category_id"] = nil
		} else {
			category, err := s.ownedCategory(userID, *in.CategoryID)
			if err != nil {
				return nil, err
			}
			expense.CategoryID = &category.ID
			expense.Category = category
			updates["category_id"] = category.ID
		}
	}
	if len(updates) == 0 {
		return expense, nil
	}

	if err := s.db.Model(&models.Expense{}).Where("id = ?", expense.ID).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// DeleteExpense removes an expense.
func (s *expenseService) DeleteExpense(userID, expenseID string) error {
	result := s.db.Where("id = ? AND user_id = ?", expenseID, userID).Delete(&models.Expense{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrExpenseNotFound
	}
	return nil
}

// GetExpensesInRange returns every expense between from and to inclusive, oldest first.
func (s *expenseService) GetExpensesInRange(userID string, from, to time.Time) ([]models.Expense, error) {
	from, to = analytics.Day(from), analytics.Day(to)
	if from.After(to) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "from cannot be after to")
	}

	var expenses []models.Expense
	err := s.db.Preload("Category").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").Order("created_at ASC").
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}
