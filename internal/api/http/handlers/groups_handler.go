package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dedup-service/internal/api/dto"
	"github.com/spec-kit/dedup-service/internal/service"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// GroupsHandler exposes operator management of ticket groups.
type GroupsHandler struct {
	groups *service.GroupService
}

// NewGroupsHandler returns a new handler instance.
func NewGroupsHandler(groups *service.GroupService) *GroupsHandler {
	return &GroupsHandler{groups: groups}
}

// List returns groups, newest first.
func (h *GroupsHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	groups, err := h.groups.List(c.UserContext(), limit, offset)
	if err != nil {
		return apperrors.MapError(err)
	}
	out := make([]dto.GroupResponse, 0, len(groups))
	for i := range groups {
		out = append(out, dto.NewGroupResponse(&groups[i]))
	}
	return c.JSON(fiber.Map{"groups": out})
}

// Get returns one group.
func (h *GroupsHandler) Get(c *fiber.Ctx) error {
	group, err := h.groups.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.NewGroupResponse(group))
}

// Members returns the tickets in a group.
func (h *GroupsHandler) Members(c *fiber.Ctx) error {
	tickets, err := h.groups.Members(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	out := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"tickets": out})
}

// Create forms a group from explicit ticket ids.
func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	group, err := h.groups.Create(c.UserContext(), req.Name, req.TicketIDs, req.PrimaryTicketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(dto.NewGroupResponse(group))
}

// AddTickets extends a group.
func (h *GroupsHandler) AddTickets(c *fiber.Ctx) error {
	var req dto.AddGroupTicketsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if len(req.TicketIDs) == 0 {
		return apperrors.NewValidationError("ticket_ids required", nil)
	}
	group, err := h.groups.Add(c.UserContext(), c.Params("id"), req.TicketIDs)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.NewGroupResponse(group))
}

// RemoveTicket detaches one ticket; the group may dissolve as a result.
func (h *GroupsHandler) RemoveTicket(c *fiber.Ctx) error {
	if err := h.groups.Remove(c.UserContext(), c.Params("id"), c.Params("ticketId")); err != nil {
		return apperrors.MapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// Resolve closes out a group and notifies the primary reporter.
func (h *GroupsHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	group, notification, err := h.groups.Resolve(c.UserContext(), c.Params("id"), req.Channel, req.Note, req.Content)
	if err != nil {
		return apperrors.MapError(err)
	}
	resp := dto.ResolveGroupResponse{Group: dto.NewGroupResponse(group)}
	if notification != nil {
		mapped := dto.NewNotificationResponse(notification)
		resp.Notification = &mapped
	}
	return c.JSON(resp)
}

func pagination(c *fiber.Ctx) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	return limit, offset
}
