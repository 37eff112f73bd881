package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dedup-service/internal/api/dto"
	"github.com/spec-kit/dedup-service/internal/auth"
	"github.com/spec-kit/dedup-service/internal/config"
	apperrors "github.com/spec-kit/dedup-service/pkg/util"
)

// AuthHandler issues operator tokens. There is a single configured
// operator identity; multi-user management is out of scope here.
type AuthHandler struct {
	tokens *auth.TokenManager
	cfg    config.AuthConfig
}

// NewAuthHandler returns a new handler instance.
func NewAuthHandler(tokens *auth.TokenManager, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{tokens: tokens, cfg: cfg}
}

// Login exchanges the operator secret for a bearer token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.OperatorLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if h.cfg.OperatorSecretHash == "" {
		return apperrors.NewUnauthorized("operator login is not configured")
	}
	if req.OperatorID != h.cfg.OperatorID {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.CompareSecret(h.cfg.OperatorSecretHash, req.Secret); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := h.tokens.GenerateToken(req.OperatorID)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(dto.OperatorLoginResponse{AccessToken: token, ExpiresAt: expiresAt})
}
