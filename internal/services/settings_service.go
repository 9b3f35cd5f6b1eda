package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

// settingsService handles per-user preferences.
type settingsService struct {
	db              *gorm.DB
	defaultCurrency string
}

// NewSettingsService creates a new SettingsServicer. New settings rows use
// defaultCurrency, falling back to models.DefaultCurrency when unsupported.
func NewSettingsService(db *gorm.DB, defaultCurrency string) SettingsServicer {
	if !models.IsSupportedCurrency(defaultCurrency) {
		defaultCurrency = models.DefaultCurrency
	}
	return &settingsService{db: db, defaultCurrency: defaultCurrency}
}

// GetSettings returns the user's settings, creating the row on first access.
func (s *settingsService) GetSettings(userID string) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	settings = models.UserSettings{UserID: userID, Currency: s.defaultCurrency}
	if err := s.db.Create(&settings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &settings, nil
}

// UpdateSettings changes currency and the monthly budget limit.
func (s *settingsService) UpdateSettings(userID string, in SettingsUpdate) (*models.UserSettings, error) {
	settings, err := s.GetSettings(userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Currency != nil {
		code := strings.ToUpper(strings.TrimSpace(*in.Currency))
		if !models.IsSupportedCurrency(code) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported currency: "+code)
		}
		settings.Currency = code
		updates["currency"] = code
	}
	switch {
	case in.ClearBudgetLimit:
		settings.MonthlyBudgetLimit = nil
		updates["monthly_budget_limit"] = nil
	case in.MonthlyBudgetLimit != nil:
		if err := validateAmount(*in.MonthlyBudgetLimit, "monthly budget limit"); err != nil {
			return nil, err
		}
		limit := in.MonthlyBudgetLimit.Round(2)
		settings.MonthlyBudgetLimit = &limit
		updates["monthly_budget_limit"] = limit
	}
	if len(updates) == 0 {
		return settings, nil
	}

	if err := s.db.Model(settings).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return settings, nil
}

// Currencies lists the supported display currencies.
func (s *settingsService) Currencies() []models.Currency {
	out := make([]models.Currency, len(models.SupportedCurrencies))
	copy(out, models.SupportedCurrencies)
	return out
}
