package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dedup-service/internal/api/dto"
	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/service"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// DeadLettersHandler exposes operator triage over terminally failed jobs.
type DeadLettersHandler struct {
	deadLetters *service.DeadLetterService
}

// NewDeadLettersHandler returns a new handler instance.
func NewDeadLettersHandler(deadLetters *service.DeadLetterService) *DeadLettersHandler {
	return &DeadLettersHandler{deadLetters: deadLetters}
}

// List returns dead letters, optionally filtered by status.
func (h *DeadLettersHandler) List(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	var status *domain.DeadLetterStatus
	if raw := c.Query("status"); raw != "" {
		parsed := domain.DeadLetterStatus(raw)
		switch parsed {
		case domain.DeadLetterStatusUnresolved, domain.DeadLetterStatusResolved, domain.DeadLetterStatusRetried:
			status = &parsed
		default:
			return apperrors.NewValidationError("unknown status filter", map[string]any{"status": raw})
		}
	}

	records, err := h.deadLetters.List(c.UserContext(), status, limit, offset)
	if err != nil {
		return apperrors.MapError(err)
	}
	out := make([]dto.DeadLetterResponse, 0, len(records))
	for i := range records {
		out = append(out, dto.NewDeadLetterResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"dead_letters": out})
}

// Get returns one dead letter.
func (h *DeadLettersHandler) Get(c *fiber.Ctx) error {
	record, err := h.deadLetters.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.NewDeadLetterResponse(record))
}

// Resolve marks a dead letter handled without replay.
func (h *DeadLettersHandler) Resolve(c *fiber.Ctx) error {
	record, err := h.deadLetters.Resolve(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.NewDeadLetterResponse(record))
}

// Retry re-enqueues the captured job.
func (h *DeadLettersHandler) Retry(c *fiber.Ctx) error {
	record, err := h.deadLetters.Retry(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.NewDeadLetterResponse(record))
}
