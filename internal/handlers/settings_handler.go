package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spendwise/internal/services"
)

// SettingsHandler handles user preference requests.
type SettingsHandler struct {
	settingsService services.SettingsServicer
	auditService    services.AuditServicer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService services.SettingsServicer, auditService services.AuditServicer) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, auditService: auditService}
}

// UpdateSettingsRequest holds the preferences to change.
type UpdateSettingsRequest struct {
	Currency           *string          `json:"currency" binding:"omitempty,currency"`
	MonthlyBudgetLimit *decimal.Decimal `json:"monthly_budget_limit"`
	ClearBudgetLimit   bool             `json:"clear_budget_limit"`
}

// GetSettings returns the user's preferences, creating defaults on first access
// @Summary     Get settings
// @Tags        settings
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.UserSettings
// @Router      /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	settings, err := h.settingsService.GetSettings(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings changes currency and the monthly budget limit
// @Summary     Update settings
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateSettingsRequest true "Preferences"
// @Success     200 {object} models.UserSettings
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	settings, err := h.settingsService.UpdateSettings(userID, services.SettingsUpdate{
		Currency:           req.Currency,
		MonthlyBudgetLimit: req.MonthlyBudgetLimit,
		ClearBudgetLimit:   req.ClearBudgetLimit,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_SETTINGS", "settings", settings.ID, c.ClientIP(),
		map[string]interface{}{"currency": settings.Currency, "monthly_budget_limit": settings.MonthlyBudgetLimit})

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// GetCurrencies lists the selectable display currencies
// @Summary     Supported currencies
// @Tags        settings
// @Produce     json
// @Success     200 {array} models.Currency
// @Router      /settings/currencies [get]
func (h *SettingsHandler) GetCurrencies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"currencies": h.settingsService.Currencies()})
}
