package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dedup-service/internal/api/dto"
	"github.com/spec-kit/dedup-service/internal/service"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// ContentHandler manages resolution text review.
type ContentHandler struct {
	content *service.ContentService
}

// NewContentHandler returns a new handler instance.
func NewContentHandler(content *service.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// CreateDraft records resolution text for a ticket.
func (h *ContentHandler) CreateDraft(c *fiber.Ctx) error {
	var req dto.CreateContentEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	entry, err := h.content.CreateDraft(c.UserContext(), c.Params("id"), req.Body)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(dto.NewContentEntryResponse(entry))
}

// Get returns one entry.
func (h *ContentHandler) Get(c *fiber.Ctx) error {
	entry, err := h.content.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.NewContentEntryResponse(entry))
}

// Approve moves a draft to approved and dispatches it.
func (h *ContentHandler) Approve(c *fiber.Ctx) error {
	entry, notification, err := h.content.Approve(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.ApproveContentResponse{
		Entry:        dto.NewContentEntryResponse(entry),
		Notification: dto.NewNotificationResponse(notification),
	})
}

// Reject discards a draft.
func (h *ContentHandler) Reject(c *fiber.Ctx) error {
	entry, err := h.content.Reject(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.NewContentEntryResponse(entry))
}
