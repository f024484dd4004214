package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-desk/internal/api/dto"
	"github.com/spec-kit/service-desk/internal/service"
	"github.com/spec-kit/service-desk/pkg/apperrors"
)

// AuthHandler manages token endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login POST /auth/tokens.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body dto.LoginRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(body.Username) == "" || body.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	_, pair, err := h.auth.Login(c.UserContext(), body.Username, body.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tokenResponse(pair)})
}

// Refresh PUT /auth/tokens.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var body dto.RefreshRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if body.RefreshToken == "" {
		return apperrors.NewValidationError("refresh_token required", nil)
	}

	_, pair, err := h.auth.Refresh(c.UserContext(), body.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tokenResponse(pair)})
}

// Logout DELETE /auth/tokens.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var body dto.RefreshRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.auth.Logout(c.UserContext(), body.RefreshToken); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func tokenResponse(pair *service.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:      pair.AccessToken,
		TokenType:        "bearer",
		ExpiresAt:        pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}
