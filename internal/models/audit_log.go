package models

// AuditLog records mutations of a user's financial data and auth events.
type AuditLog struct {
	Base
	UserID       string `gorm:"type:uuid;not null;index" json:"user_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}

// All returns every persisted model in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&EmailOTP{},
		&Category{},
		&Budget{},
		&Expense{},
		&UserSettings{},
		&ContactMessage{},
		&AuditLog{},
	}
}
