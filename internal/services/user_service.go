package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
	"spendwise/internal/mailer"
	"spendwise/internal/models"
)

const minPasswordLength = 8

// AuthPolicy holds the timing rules for codes and login lockout.
type AuthPolicy struct {
	OTPTTL        time.Duration
	MaxLoginFails int
	LockoutWindow time.Duration
}

// DefaultAuthPolicy mirrors the configuration defaults.
var DefaultAuthPolicy = AuthPolicy{
	OTPTTL:        15 * time.Minute,
	MaxLoginFails: 5,
	LockoutWindow: 15 * time.Minute,
}

// userService handles user-related business logic.
type userService struct {
	db     *gorm.DB
	mail   mailer.Mailer
	policy AuthPolicy
	now    func() time.Time
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, mail mailer.Mailer, policy AuthPolicy) UserServicer {
	return &userService{db: db, mail: mail, policy: policy, now: time.Now}
}

// splitFullName puts everything after the first space into the last name.
func splitFullName(full string) (string, string) {
	full = strings.Join(strings.Fields(full), " ")
	first, last, _ := strings.Cut(full, " ")
	return first, last
}

func hashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return string(hashed), nil
}

func (s *userService) sendCode(ctx context.Context, user *models.User, purpose models.OTPPurpose) error {
	otp, err := issueOTP(s.db, user.ID, purpose, s.policy.OTPTTL, s.now())
	if err != nil {
		return err
	}

	subject := "Verify your SpendWise account"
	intro := "Welcome to SpendWise! Use the code below to verify your email address."
	if purpose == models.OTPPurposeReset {
		subject = "Reset your SpendWise password"
		intro = "We received a request to reset your password. Use the code below to continue."
	}
	body := fmt.Sprintf("Hi %s,\n\n%s\n\n    %s\n\nThe code expires in %d minutes. If you did not request it, you can ignore this email.\n",
		user.FirstName, intro, otp.Code, int(s.policy.OTPTTL.Minutes()))

	if err := s.mail.Send(ctx, mailer.NewMessage(user.Email, subject, body)); err != nil {
		logger.Get().Errorw("failed to send verification code", "error", err, "user_id", user.ID, "purpose", purpose)
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Register creates an inactive user and mails the registration code.
func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if email == "" || username == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and username are required")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}
	if err := s.db.Model(&models.User{}).Where("LOWER(username) = LOWER(?)", username).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUsername
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	first, last := splitFullName(in.FullName)
	user := &models.User{
		Email:     email,
		Username:  username,
		Password:  hashed,
		FirstName: first,
		LastName:  last,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.sendCode(ctx, user, models.OTPPurposeRegister); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyEmailOTP activates the user owning email when code matches.
func (s *userService) VerifyEmailOTP(email, code string) (*models.User, error) {
	user, err := s.findByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidOTP
		}
		return nil, err
	}
	if user.IsEmailVerified {
		return nil, apperrors.ErrAlreadyVerified
	}

	now := s.now().UTC()
	otp, err := checkOTP(s.db, user.ID, models.OTPPurposeRegister, code, now)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(otp).Updates(map[string]interface{}{"verified_at": now, "consumed_at": now}).Error; err != nil {
			return err
		}
		return tx.Model(user).Updates(map[string]interface{}{"is_active": true, "is_email_verified": true}).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.IsActive = true
	user.IsEmailVerified = true
	return user, nil
}

// ResendVerification issues a new registration code for an unverified user.
func (s *userService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.findByEmail(email)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return apperrors.ErrAlreadyVerified
	}
	return s.sendCode(ctx, user, models.OTPPurposeRegister)
}

// findByEmail looks a user up regardless of activation state.
func (s *userService) findByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByEmail retrieves an active user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// AttemptLogin checks credentials and applies the lockout policy. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.findByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now().UTC()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, apperrors.ErrAccountLocked
	}

	if !s.VerifyPassword(user, password) {
		updates := map[string]interface{}{"failed_login_attempts": user.FailedLoginAttempts + 1}
		locked := user.FailedLoginAttempts+1 >= s.policy.MaxLoginFails
		if locked {
			updates["locked_until"] = now.Add(s.policy.LockoutWindow)
			updates["failed_login_attempts"] = 0
		}
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if locked {
			logger.Get().Warnw("account locked after failed logins", "user_id", user.ID)
			return nil, apperrors.ErrAccountLocked
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsEmailVerified || !user.IsActive {
		return nil, apperrors.ErrEmailNotVerified
	}

	err = s.db.Model(user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	return user, nil
}

// StoreRefreshTokenHash stores the SHA-256 hash of the current refresh token.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash retrieves the stored refresh token hash for a user.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}

// UpdateProfile changes names and username.
func (s *userService) UpdateProfile(userID string, in ProfileUpdate) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
		updates["first_name"] = user.FirstName
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
		updates["last_name"] = user.LastName
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username cannot be empty")
		}
		if username != user.Username {
			var count int64
			err := s.db.Model(&models.User{}).
				Where("LOWER(username) = LOWER(?) AND id <> ?", username, userID).Count(&count).Error
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count > 0 {
				return nil, apperrors.ErrDuplicateUsername
			}
			user.Username = username
			updates["username"] = username
		}
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// RequestPasswordReset mails a reset code to a registered address.
func (s *userService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.findByEmail(email)
	if err != nil {
		return err
	}
	return s.sendCode(ctx, user, models.OTPPurposeReset)
}

// VerifyPasswordResetOTP marks the reset code verified without consuming it.
func (s *userService) VerifyPasswordResetOTP(email, code string) error {
	user, err := s.findByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrInvalidOTP
		}
		return err
	}

	now := s.now().UTC()
	otp, err := checkOTP(s.db, user.ID, models.OTPPurposeReset, code, now)
	if err != nil {
		return err
	}
	if err := s.db.Model(otp).Update("verified_at", now).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ConfirmPasswordReset sets a new password once a reset code was verified.
// The code is consumed and the stored refresh token dropped.
func (s *userService) ConfirmPasswordReset(email, newPassword string) error {
	user, err := s.findByEmail(email)
	if err != nil {
		return err
	}

	otp, err := latestOTP(s.db, user.ID, models.OTPPurposeReset)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidOTP, "password reset has not been verified")
	}
	now := s.now().UTC()
	if otp.VerifiedAt == nil || otp.ConsumedAt != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidOTP, "password reset has not been verified")
	}
	if otp.Expired(now) {
		return apperrors.ErrOTPExpired
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(otp).Update("consumed_at", now).Error; err != nil {
			return err
		}
		return tx.Model(user).Updates(map[string]interface{}{
			"password":              hashed,
			"refresh_token_hash":    "",
			"failed_login_attempts": 0,
			"locked_until":          nil,
		}).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
