package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spendwise/internal/logger"
	"spendwise/internal/pagination"
	"spendwise/internal/services"
)

// ContactHandler handles the public contact form.
type ContactHandler struct {
	contactService services.ContactServicer
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contactService services.ContactServicer) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// ContactRequest is a contact form submission.
type ContactRequest struct {
	FullName string `json:"full_name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Subject  string `json:"subject" binding:"required,max=200"`
	Message  string `json:"message" binding:"required,max=5000"`
}

// Submit stores a contact message
// @Summary     Submit the contact form
// @Tags        contact
// @Accept      json
// @Produce     json
// @Param       request body ContactRequest true "Message"
// @Success     201 {object} MessageResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	msg, err := h.contactService.Submit(services.ContactInput{
		FullName:  req.FullName,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	logger.Get().Infow("contact message received", "id", msg.ID, "subject", msg.Subject)
	c.JSON(http.StatusCreated, MessageResponse{Message: "Thank you for reaching out. We will get back to you soon."})
}

// ListMessages returns submitted messages, newest first
// @Summary     List contact messages
// @Tags        contact
// @Produce     json
// @Security    AdminKey
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.ContactMessage]
// @Failure     401 {object} ErrorResponse "Missing or invalid admin key"
// @Router      /admin/contact-messages [get]
func (h *ContactHandler) ListMessages(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	result, err := h.contactService.ListMessages(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
