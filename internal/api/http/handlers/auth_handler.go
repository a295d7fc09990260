package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and token endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	user, err := h.auth.RegisterCustomer(c.UserContext(), service.Credentials{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// RegisterSuperAdmin handles POST /auth/register-superadmin.
func (h *AuthHandler) RegisterSuperAdmin(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	user, err := h.auth.RegisterSuperAdmin(c.UserContext(), service.Credentials{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	user, pair, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(user),
			"auth": dto.AuthResponse{
				AccessToken:      pair.AccessToken,
				AccessExpiresAt:  pair.AccessExpiresAt,
				RefreshToken:     pair.RefreshToken,
				RefreshExpiresAt: pair.RefreshExpiresAt,
			},
		},
	})
}

// Refresh handles POST /auth/refresh. The refresh token comes as bearer header or in the body.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := ""
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		raw, err := auth.BearerToken(header)
		if err != nil {
			return err
		}
		token = raw
	} else {
		var req dto.RefreshRequest
		if err := parseJSON(c, &req); err != nil {
			return err
		}
		token = req.RefreshToken
	}
	if token == "" {
		return apperrors.NewUnauthorized("refresh token required")
	}

	access, exp, err := h.auth.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AccessTokenResponse{AccessToken: access, ExpiresAt: exp}})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.LogoutRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), principal.Claims, req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "logged_out"}})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.PasswordChangeRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current and new password required", nil)
	}
	if err := h.auth.ChangePassword(c.UserContext(), auth.CurrentUser(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}
