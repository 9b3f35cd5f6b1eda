package models

// ContactMessage is a submission from the public contact form.
type ContactMessage struct {
	Base
	FullName  string `gorm:"size:100;not null" json:"full_name"`
	Email     string `gorm:"not null" json:"email"`
	Subject   string `gorm:"size:200;not null" json:"subject"`
	Message   string `gorm:"type:text;not null" json:"message"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}
