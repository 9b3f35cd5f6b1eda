// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"spendwise/internal/models"
)

var (
	monthPattern    = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)
	otpPattern      = regexp.MustCompile(`^\d{6}$`)
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currency", validateCurrency)
		_ = v.RegisterValidation("month", validateMonth)
		_ = v.RegisterValidation("date_only", validateDateOnly)
		_ = v.RegisterValidation("expense_type", validateExpenseType)
		_ = v.RegisterValidation("username", validateUsername)
		_ = v.RegisterValidation("otp", validateOTP)
	}
}

func validateCurrency(fl validator.FieldLevel) bool {
	return models.IsSupportedCurrency(strings.ToUpper(fl.Field().String()))
}

func validateMonth(fl validator.FieldLevel) bool {
	return monthPattern.MatchString(fl.Field().String())
}

func validateDateOnly(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.DateOnly, fl.Field().String())
	return err == nil
}

func validateExpenseType(fl validator.FieldLevel) bool {
	switch models.ExpenseType(fl.Field().String()) {
	case models.ExpenseTypeFixed, models.ExpenseTypeVariable:
		return true
	}
	return false
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

func validateOTP(fl validator.FieldLevel) bool {
	return otpPattern.MatchString(fl.Field().String())
}
