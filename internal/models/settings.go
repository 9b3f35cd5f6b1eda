package models

import "github.com/shopspring/decimal"

// SupportedCurrencies lists the display currencies a user can choose.
var SupportedCurrencies = []Currency{
	{Code: "USD", Name: "US Dollar"},
	{Code: "EUR", Name: "Euro"},
	{Code: "INR", Name: "Indian Rupee"},
	{Code: "GBP", Name: "British Pound"},
	{Code: "JPY", Name: "Japanese Yen"},
	{Code: "AUD", Name: "Australian Dollar"},
	{Code: "CAD", Name: "Canadian Dollar"},
}

// DefaultCurrency is used when a user has no settings row.
const DefaultCurrency = "INR"

// Currency is a selectable display currency. Amounts are never converted.
type Currency struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// IsSupportedCurrency reports whether code is in SupportedCurrencies.
func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c.Code == code {
			return true
		}
	}
	return false
}

// UserSettings holds per-user preferences.
type UserSettings struct {
	Base
	UserID             string           `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Currency           string           `gorm:"size:3;not null;default:'INR'" json:"currency"`
	MonthlyBudgetLimit *decimal.Decimal `gorm:"type:numeric(12,2)" json:"monthly_budget_limit,omitempty"`
}
