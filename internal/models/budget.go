package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a monthly spending allocation for one category. Month holds the
// first day of the month at UTC midnight.
type Budget struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;uniqueIndex:idx_budget_user_category_month" json:"user_id"`
	CategoryID string          `gorm:"type:uuid;not null;uniqueIndex:idx_budget_user_category_month" json:"category_id"`
	Month      time.Time       `gorm:"type:date;not null;uniqueIndex:idx_budget_user_category_month" json:"month"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`

	Category Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category"`
}
