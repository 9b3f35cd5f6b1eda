package models

import "time"

// OTPPurpose distinguishes registration codes from password reset codes.
type OTPPurpose string

const (
	OTPPurposeRegister OTPPurpose = "register"
	OTPPurposeReset    OTPPurpose = "reset"
)

// EmailOTP is a six digit code mailed to a user.
type EmailOTP struct {
	Base
	UserID     string     `gorm:"type:uuid;not null;index:idx_email_otp_user_purpose" json:"user_id"`
	Purpose    OTPPurpose `gorm:"size:16;not null;index:idx_email_otp_user_purpose" json:"purpose"`
	Code       string     `gorm:"size:6;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
}

// Expired reports whether the code is past its expiry at now.
func (o *EmailOTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
