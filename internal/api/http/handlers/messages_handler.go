package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dedup-service/internal/api/dto"
	"github.com/spec-kit/dedup-service/internal/service"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// MessagesHandler accepts normalized inbound messages from channel
// connectors.
type MessagesHandler struct {
	ingest *service.IngestService
}

// NewMessagesHandler returns a new handler instance.
func NewMessagesHandler(ingest *service.IngestService) *MessagesHandler {
	return &MessagesHandler{ingest: ingest}
}

// Ingest maps an inbound message to a ticket. Re-delivered messages with a
// known (channel, external id) pair return the existing ticket with 200.
func (h *MessagesHandler) Ingest(c *fiber.Ctx) error {
	var req dto.InboundMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, created, err := h.ingest.Ingest(c.UserContext(), service.TicketDraft{
		Channel:         req.Channel,
		ExternalID:      req.ExternalID,
		ReporterID:      req.ReporterID,
		ReporterAddress: req.ReporterAddress,
		Title:           req.Title,
		Description:     req.Description,
	})
	if err != nil {
		return apperrors.MapError(err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(dto.IngestResponse{
		Ticket:  dto.NewTicketResponse(ticket),
		Created: created,
	})
}

// Get returns a ticket by id.
func (h *MessagesHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.ingest.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}
