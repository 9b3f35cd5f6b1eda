package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spendwise/internal/analytics"
	apperrors "spendwise/internal/errors"
	"spendwise/internal/export"
	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/services"
)

// ExpenseHandler handles expense-related requests
type ExpenseHandler struct {
	expenseService  services.ExpenseServicer
	settingsService services.SettingsServicer
	auditService    services.AuditServicer
	now             func() time.Time
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService services.ExpenseServicer, settingsService services.SettingsServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService:  expenseService,
		settingsService: settingsService,
		auditService:    auditService,
		now:             time.Now,
	}
}

// CreateExpenseRequest represents the request body for recording an expense
type CreateExpenseRequest struct {
	CategoryID  *string          `json:"category_id" binding:"omitempty,uuid"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Date        string           `json:"date" binding:"required,date_only"`
	Notes       string           `json:"notes" binding:"max=255"`
	ExpenseType string           `json:"expense_type" binding:"omitempty,expense_type"`
	IsRecurring bool             `json:"is_recurring"`
	DueDate     *string          `json:"due_date" binding:"omitempty,date_only"`
	AutoPay     bool             `json:"auto_pay"`
}

// UpdateExpenseRequest represents the request body for changing an expense.
// An empty category_id clears the category.
type UpdateExpenseRequest struct {
	CategoryID  *string          `json:"category_id"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *string          `json:"date" binding:"omitempty,date_only"`
	Notes       *string          `json:"notes" binding:"omitempty,max=255"`
	ExpenseType *string          `json:"expense_type" binding:"omitempty,expense_type"`
	IsRecurring *bool            `json:"is_recurring"`
	DueDate     *string          `json:"due_date" binding:"omitempty,date_only"`
	AutoPay     *bool            `json:"auto_pay"`
}

func optionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateExpense handles recording a new expense
// @Summary     Create an expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	dueDate, err := optionalDate("due_date", req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(userID, services.ExpenseInput{
		CategoryID:  req.CategoryID,
		Amount:      *req.Amount,
		Date:        date,
		Notes:       req.Notes,
		ExpenseType: models.ExpenseType(req.ExpenseType),
		IsRecurring: req.IsRecurring,
		DueDate:     dueDate,
		AutoPay:     req.AutoPay,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"amount": expense.Amount, "date": expense.Date})

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// GetExpenses lists the user's expenses
// @Summary     List expenses
// @Description Filter by text, category, amount range and date range. Search matches notes and category names, or the exact amount when numeric.
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       search      query string false "Search notes, category name or amount"
// @Param       category_id query string false "Filter by category"
// @Param       amount_min  query number false "Minimum amount"
// @Param       amount_max  query number false "Maximum amount"
// @Param       from        query string false "From date (YYYY-MM-DD)"
// @Param       to          query string false "To date (YYYY-MM-DD)"
// @Param       sort_by     query string false "date, -date, amount, -amount, created_at, -created_at"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	filter := services.ExpenseFilter{
		Search: c.Query("search"),
		SortBy: c.Query("sort_by"),
	}
	if raw := c.Query("category_id"); raw != "" {
		filter.CategoryID = &raw
	}
	if filter.MinAmount, err = queryDecimal(c, "amount_min"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.MaxAmount, err = queryDecimal(c, "amount_max"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.From, err = queryDate(c, "from"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.expenseService.GetUserExpenses(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExpense returns one expense
// @Summary     Get an expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	expenseID, err := parsePathID(c, "id", apperrors.ErrExpenseNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense changes an expense
// @Summary     Update an expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Fields to change"
// @Success     200 {object} models.Expense
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	expenseID, err := parsePathID(c, "id", apperrors.ErrExpenseNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	update := services.ExpenseUpdate{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Notes:       req.Notes,
		IsRecurring: req.IsRecurring,
		AutoPay:     req.AutoPay,
	}
	if update.Date, err = optionalDate("date", req.Date); err != nil {
		respondWithError(c, err)
		return
	}
	if update.DueDate, err = optionalDate("due_date", req.DueDate); err != nil {
		respondWithError(c, err)
		return
	}
	if req.ExpenseType != nil {
		t := models.ExpenseType(*req.ExpenseType)
		update.ExpenseType = &t
	}

	expense, err := h.expenseService.UpdateExpense(userID, expenseID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_EXPENSE", "expense", expenseID, c.ClientIP(),
		map[string]interface{}{"amount": expense.Amount, "date": expense.Date})

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpense removes an expense
// @Summary     Delete an expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	expenseID, err := parsePathID(c, "id", apperrors.ErrExpenseNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_EXPENSE", "expense", expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Expense deleted successfully"})
}

// exportReport loads the expenses for the export range. from and to must be
// given together; without them the range runs from the start of this month to today.
func (h *ExpenseHandler) exportReport(c *gin.Context, userID string) (*export.Report, error) {
	from, err := queryDate(c, "from")
	if err != nil {
		return nil, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return nil, err
	}
	if (from == nil) != (to == nil) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "from and to must be provided together")
	}
	if from == nil {
		today := analytics.Day(h.now())
		start := analytics.MonthOf(today).Start()
		from, to = &start, &today
	}

	expenses, err := h.expenseService.GetExpensesInRange(userID, *from, *to)
	if err != nil {
		return nil, err
	}

	currency := models.DefaultCurrency
	if settings, err := h.settingsService.GetSettings(userID); err == nil {
		currency = settings.Currency
	} else {
		logger.Get().Warnw("export falling back to default currency", "user_id", userID, "error", err)
	}

	return &export.Report{Currency: currency, From: *from, To: *to, Expenses: expenses}, nil
}

// ExportPDF downloads the user's expenses as a PDF report
// @Summary     Export expenses as PDF
// @Tags        expenses
// @Produce     application/pdf
// @Security    BearerAuth
// @Param       from query string false "From date (YYYY-MM-DD), requires to"
// @Param       to   query string false "To date (YYYY-MM-DD), requires from"
// @Success     200 {file} file
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /expenses/export/pdf [get]
func (h *ExpenseHandler) ExportPDF(c *gin.Context) {
	h.serveExport(c, "pdf", "application/pdf", export.PDF)
}

// ExportCSV downloads the user's expenses as CSV
// @Summary     Export expenses as CSV
// @Tags        expenses
// @Produce     text/csv
// @Security    BearerAuth
// @Param       from query string false "From date (YYYY-MM-DD), requires to"
// @Param       to   query string false "To date (YYYY-MM-DD), requires from"
// @Success     200 {file} file
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /expenses/export/csv [get]
func (h *ExpenseHandler) ExportCSV(c *gin.Context) {
	h.serveExport(c, "csv", "text/csv", export.CSV)
}

func (h *ExpenseHandler) serveExport(c *gin.Context, ext, contentType string, render func(export.Report) ([]byte, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.exportReport(c, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	body, err := render(*report)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.Log(userID, "EXPORT_EXPENSES", "expense", "", c.ClientIP(),
		map[string]interface{}{"format": ext, "count": len(report.Expenses)})

	c.Header("Content-Disposition", `attachment; filename="`+report.Filename(ext)+`"`)
	c.Data(http.StatusOK, contentType, body)
}
