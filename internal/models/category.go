package models

// Category groups expenses and budgets. Names are unique per user, ignoring
// case; gorm tags cannot express the LOWER(name) index, see Indexes.
type Category struct {
	Base
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string `gorm:"size:100;not null" json:"name"`
}

// Indexes are the expression indexes AutoMigrate cannot derive from tags.
// The postgres migrations create the same ones.
var Indexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_user_name ON categories (user_id, LOWER(name))",
}
