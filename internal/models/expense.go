package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseType separates recurring obligations from discretionary spend.
type ExpenseType string

const (
	ExpenseTypeFixed    ExpenseType = "fixed"
	ExpenseTypeVariable ExpenseType = "variable"
)

// Expense is a single spending record. CategoryID is nulled when the category goes away.
type Expense struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index:idx_expense_user_date" json:"user_id"`
	CategoryID  *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Date        time.Time       `gorm:"type:date;not null;index:idx_expense_user_date" json:"date"`
	Notes       string          `gorm:"size:255" json:"notes"`
	ExpenseType ExpenseType     `gorm:"size:10;not null;default:'variable'" json:"expense_type"`
	IsRecurring bool            `gorm:"not null;default:false" json:"is_recurring"`
	DueDate     *time.Time      `gorm:"type:date" json:"due_date,omitempty"`
	AutoPay     bool            `gorm:"not null;default:false" json:"auto_pay"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
}

// CategoryName returns the category name or "" when uncategorized.
func (e *Expense) CategoryName() string {
	if e.Category == nil {
		return ""
	}
	return e.Category.Name
}
