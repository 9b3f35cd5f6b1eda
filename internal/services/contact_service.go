package services

import (
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
)

const minContactMessageLength = 10

// contactService stores contact form submissions.
type contactService struct {
	db *gorm.DB
}

// NewContactService creates a new ContactServicer.
func NewContactService(db *gorm.DB) ContactServicer {
	return &contactService{db: db}
}

func requireText(value, field string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, field+" is required")
	}
	if utf8.RuneCountInString(value) > max {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, field+" is too long")
	}
	return value, nil
}

// Submit validates and records a message.
func (s *contactService) Submit(in ContactInput) (*models.ContactMessage, error) {
	fullName, err := requireText(in.FullName, "full_name", 100)
	if err != nil {
		return nil, err
	}
	email, err := requireText(in.Email, "email", 254)
	if err != nil {
		return nil, err
	}
	subject, err := requireText(in.Subject, "subject", 200)
	if err != nil {
		return nil, err
	}
	body, err := requireText(in.Message, "message", 5000)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(body) < minContactMessageLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "message must be at least 10 characters")
	}

	msg := &models.ContactMessage{
		FullName:  fullName,
		Email:     strings.ToLower(email),
		Subject:   subject,
		Message:   body,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
	}
	if err := s.db.Create(msg).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return msg, nil
}

// ListMessages returns submissions, newest first.
func (s *contactService) ListMessages(page pagination.PageRequest) (*pagination.PageResponse[models.ContactMessage], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.ContactMessage{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var messages []models.ContactMessage
	if err := s.db.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&messages).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(messages, page.Page, page.PageSize, totalItems)
	return &result, nil
}
