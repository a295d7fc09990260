package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/policy"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RequireAction rejects callers whose role may never perform action.
// Scope checks against the target stay in the service layer.
func RequireAction(action policy.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := policy.CheckRole(CurrentUser(c), action); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures the caller is authenticated.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
