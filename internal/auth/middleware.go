package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const actorKey = "auth_actor"

// PermissionLookup resolves the capability set held by a user. It is the only
// source of authorization data; an unknown user yields an empty set.
type PermissionLookup interface {
	PermissionsForUser(ctx context.Context, userID int64) (PermissionSet, error)
}

// AuthMiddleware validates bearer tokens and loads the caller's capabilities.
type AuthMiddleware struct {
	tokens      *TokenManager
	permissions PermissionLookup
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, permissions PermissionLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, permissions: permissions}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	perms, err := m.permissions.PermissionsForUser(c.UserContext(), claims.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}

	c.Locals(actorKey, NewActor(claims.UserID, perms))
	return c.Next()
}

// ActorFromContext retrieves the authenticated actor.
func ActorFromContext(c *fiber.Ctx) (Actor, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return Actor{}, false
	}
	actor, ok := val.(Actor)
	return actor, ok
}
