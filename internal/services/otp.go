package services

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"time"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

const otpLength = 6

// generateOTP returns a uniformly random numeric code of otpLength digits.
func generateOTP() (string, error) {
	code := make([]byte, otpLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// issueOTP replaces any outstanding code of the same purpose with a fresh one.
func issueOTP(db *gorm.DB, userID string, purpose models.OTPPurpose, ttl time.Duration, now time.Time) (*models.EmailOTP, error) {
	code, err := generateOTP()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	otp := &models.EmailOTP{
		UserID:    userID,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: now.Add(ttl).UTC(),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND purpose = ?", userID, purpose).Delete(&models.EmailOTP{}).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return otp, nil
}

// latestOTP returns the newest code of a purpose for the user.
func latestOTP(db *gorm.DB, userID string, purpose models.OTPPurpose) (*models.EmailOTP, error) {
	var otp models.EmailOTP
	err := db.Where("user_id = ? AND purpose = ?", userID, purpose).
		Order("created_at DESC").First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidOTP
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &otp, nil
}

// checkOTP matches code against the newest unconsumed code of the purpose.
func checkOTP(db *gorm.DB, userID string, purpose models.OTPPurpose, code string, now time.Time) (*models.EmailOTP, error) {
	otp, err := latestOTP(db, userID, purpose)
	if err != nil {
		return nil, err
	}
	if otp.ConsumedAt != nil || subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		return nil, apperrors.ErrInvalidOTP
	}
	if otp.Expired(now) {
		return nil, apperrors.ErrOTPExpired
	}
	return otp, nil
}
