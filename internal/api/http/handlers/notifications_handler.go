package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dedup-service/internal/api/dto"
	"github.com/spec-kit/dedup-service/internal/service"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// NotificationsHandler exposes the batch-review queue produced by the
// surge gate.
type NotificationsHandler struct {
	surge *service.SurgeService
}

// NewNotificationsHandler returns a new handler instance.
func NewNotificationsHandler(surge *service.SurgeService) *NotificationsHandler {
	return &NotificationsHandler{surge: surge}
}

// ListHeld returns notifications waiting for review.
func (h *NotificationsHandler) ListHeld(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	held, err := h.surge.ListHeld(c.UserContext(), limit, offset)
	if err != nil {
		return apperrors.MapError(err)
	}
	out := make([]dto.NotificationResponse, 0, len(held))
	for i := range held {
		out = append(out, dto.NewNotificationResponse(&held[i]))
	}
	return c.JSON(fiber.Map{"notifications": out})
}

// ApproveAll releases every held notification for delivery.
func (h *NotificationsHandler) ApproveAll(c *fiber.Ctx) error {
	released, err := h.surge.ApproveAllHeld(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"released": released})
}

// RejectAll permanently discards every held notification.
func (h *NotificationsHandler) RejectAll(c *fiber.Ctx) error {
	rejected, err := h.surge.RejectAllHeld(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"rejected": rejected})
}

// Approve releases a held notification for delivery.
func (h *NotificationsHandler) Approve(c *fiber.Ctx) error {
	notification, err := h.surge.ApproveHeld(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.NewNotificationResponse(notification))
}

// Reject permanently discards a held notification.
func (h *NotificationsHandler) Reject(c *fiber.Ctx) error {
	notification, err := h.surge.RejectHeld(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.NewNotificationResponse(notification))
}
