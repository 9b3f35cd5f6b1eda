package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"spendwise/internal/analytics"
	"spendwise/internal/logger"
	"spendwise/internal/models"
)

// redactedAuditKeys never reach the audit table.
var redactedAuditKeys = map[string]bool{
	"password":         true,
	"new_password":     true,
	"confirm_password": true,
	"otp":              true,
	"code":             true,
	"refresh_token":    true,
	"access_token":     true,
}

// auditService records mutations of financial data and auth events.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// auditValue renders money as two-place strings, months as YYYY-MM and
// dates as YYYY-MM-DD so entries read the same as the API payloads.
func auditValue(v interface{}) interface{} {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.StringFixed(2)
	case *decimal.Decimal:
		if val == nil {
			return nil
		}
		return val.StringFixed(2)
	case analytics.Month:
		return val.String()
	case time.Time:
		return val.UTC().Format(time.DateOnly)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.UTC().Format(time.DateOnly)
	}
	return v
}

// auditChanges drops secrets and normalizes values. It returns "" when
// nothing is left to record.
func auditChanges(changes map[string]interface{}) (string, error) {
	clean := make(map[string]interface{}, len(changes))
	for k, v := range changes {
		if redactedAuditKeys[strings.ToLower(k)] {
			continue
		}
		clean[k] = auditValue(v)
	}
	if len(clean) == 0 {
		return "", nil
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// resolveUserID attributes anonymous events such as a password reset to the
// account named by the "email" change.
func (s *auditService) resolveUserID(changes map[string]interface{}) (string, error) {
	email, _ := changes["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", nil
	}
	var user models.User
	err := s.db.Select("id").Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// Log records an audit event. Failures are logged and swallowed so the
// caller's operation still succeeds. Events that cannot be tied to a user
// go to the application log only.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	log := logger.Named("audit")

	if userID == "" {
		resolved, err := s.resolveUserID(changes)
		if err != nil {
			log.Errorw("failed to resolve audit user", "error", err, "action", action)
			return
		}
		if resolved == "" {
			log.Infow("anonymous audit event", "action", action, "resource_type", resourceType, "ip", ipAddress)
			return
		}
		userID = resolved
		if resourceType == "user" && resourceID == "" {
			resourceID = resolved
		}
	}

	changesJSON, err := auditChanges(changes)
	if err != nil {
		log.Errorw("failed to marshal audit changes", "error", err, "action", action)
		changesJSON = "{}"
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}
	if err := s.db.Create(entry).Error; err != nil {
		log.Errorw("failed to write audit entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource", resourceType+"/"+resourceID,
		)
	}
}
