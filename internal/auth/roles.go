package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// RequireCapability ensures the actor holds at least one of the listed
// capabilities.
func RequireCapability(caps ...Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(caps) == 0 {
			return c.Next()
		}
		for _, capability := range caps {
			if actor.Can(capability) {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient capabilities", map[string]any{"actor_id": actor.UserID})
	}
}

// RequireActor ensures the caller is authenticated.
func RequireActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ActorFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
