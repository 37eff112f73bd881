package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dedup-service/internal/api/dto"
	"github.com/spec-kit/dedup-service/internal/jobs"
	"github.com/spec-kit/dedup-service/internal/observability"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// AdminHandler exposes the force-fail switch and the metrics snapshot.
type AdminHandler struct {
	flags      jobs.FlagStore
	registry   *jobs.Registry
	metrics    *observability.Metrics
	defaultTTL time.Duration
}

// NewAdminHandler returns a new handler instance.
func NewAdminHandler(flags jobs.FlagStore, registry *jobs.Registry, metrics *observability.Metrics, defaultTTL time.Duration) *AdminHandler {
	return &AdminHandler{flags: flags, registry: registry, metrics: metrics, defaultTTL: defaultTTL}
}

// ArmForceFail arms a one-shot failure for the next run of a job type.
// The flag expires on its own if no job of that type runs within the TTL.
func (h *AdminHandler) ArmForceFail(c *fiber.Ctx) error {
	jobType := c.Params("jobType")
	if _, err := h.registry.Resolve(jobType); err != nil {
		return apperrors.NewNotFound("job type", map[string]any{"job_type": jobType})
	}

	var req dto.ForceFailRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ttl := h.defaultTTL
	if req.TTLMinutes > 0 {
		ttl = time.Duration(req.TTLMinutes) * time.Minute
	}

	if err := h.flags.Arm(c.UserContext(), jobType, ttl); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.ForceFailStatusResponse{JobType: jobType, Armed: true})
}

// DisarmForceFail clears an armed flag.
func (h *AdminHandler) DisarmForceFail(c *fiber.Ctx) error {
	jobType := c.Params("jobType")
	if err := h.flags.Disarm(c.UserContext(), jobType); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.ForceFailStatusResponse{JobType: jobType, Armed: false})
}

// ForceFailStatus reports whether a flag is currently armed.
func (h *AdminHandler) ForceFailStatus(c *fiber.Ctx) error {
	jobType := c.Params("jobType")
	armed, err := h.flags.Armed(c.UserContext(), jobType)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.ForceFailStatusResponse{JobType: jobType, Armed: armed})
}

// Metrics returns the counter snapshot.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
