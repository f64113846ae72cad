package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nexfleet/devicehub/internal/apperr"
	"github.com/nexfleet/devicehub/internal/models"
	"github.com/nexfleet/devicehub/internal/services"
	"github.com/nexfleet/devicehub/internal/store"
)

const (
	adminIDKey   = "adminID"
	adminRoleKey = "adminRole"
)

// Protected verifies the bearer ID token, resolves the acting admin
// document, and rejects disabled accounts. The admin id and role are
// stored on the request context for handlers and role guards.
func Protected(verifier store.TokenVerifier, admins *services.AdminService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return apperr.Unauthorized("missing authorization header")
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			return apperr.Unauthorized("invalid authorization format")
		}

		uid, err := verifier.VerifyToken(c.Context(), token)
		if err != nil {
			return apperr.Unauthorized("invalid token")
		}

		admin, err := admins.Get(c.Context(), uid)
		if err != nil {
			return apperr.Unauthorized("admin account not found")
		}
		if admin.Status == models.UserStatusDisabled {
			return apperr.Unauthorized("admin account is disabled")
		}

		c.Locals(adminIDKey, admin.ID)
		c.Locals(adminRoleKey, admin.Role)

		return c.Next()
	}
}

// RequireSuperAdmin guards routes reserved for super-admins. Must run
// after Protected.
func RequireSuperAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(adminRoleKey).(string); role != models.RoleSuperAdmin {
			return apperr.Unauthorized("super-admin role required")
		}
		return c.Next()
	}
}

// AdminID returns the acting admin id set by Protected.
func AdminID(c *fiber.Ctx) string {
	id, _ := c.Locals(adminIDKey).(string)
	return id
}

// ActorFrom builds the audit actor for the current request.
func ActorFrom(c *fiber.Ctx) services.Actor {
	if id := AdminID(c); id != "" {
		return services.AdminActor(id)
	}
	return services.SystemActor()
}
