package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type staticPermissions map[int64]auth.PermissionSet

func (s staticPermissions) PermissionsForUser(_ context.Context, userID int64) (auth.PermissionSet, error) {
	return s[userID], nil
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp(t *testing.T) (*fiber.App, *auth.TokenManager, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager("test-secret", 5)
	perms := staticPermissions{
		1: auth.CapabilitiesForRole(auth.RoleAdmin),
		3: auth.CapabilitiesForRole(auth.RoleReporter),
	}

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)

	api := app.Group("/api", auth.NewAuthMiddleware(tokens, perms).Handle, auth.RequireActor())
	api.Get("/whoami", func(c *fiber.Ctx) error {
		actor, _ := auth.ActorFromContext(c)
		return c.JSON(fiber.Map{"user_id": actor.UserID})
	})
	api.Get("/admin", auth.RequireCapability(auth.CapAdministerTickets), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	api.Get("/transition", func(*fiber.Ctx) error {
		return apperrors.NewInvalidTransition("transition not allowed", map[string]any{"ticket_id": 7})
	})
	api.Get("/panic", func(*fiber.Ctx) error {
		panic("boom")
	})
	return app, tokens, metrics
}

func call(t *testing.T, app *fiber.App, path, token string) (int, errorBody) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body errorBody
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func TestErrorResponses(t *testing.T) {
	app, tokens, metrics := newTestApp(t)
	admin, _, err := tokens.GenerateToken(1)
	require.NoError(t, err)
	reporter, _, err := tokens.GenerateToken(3)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		code   string
	}{
		{"no token", "/api/whoami", "", 401, apperrors.CodeUnauthorized},
		{"garbage token", "/api/whoami", "not-a-jwt", 401, apperrors.CodeUnauthorized},
		{"missing capability", "/api/admin", reporter, 403, apperrors.CodeForbidden},
		{"invalid transition", "/api/transition", admin, 422, apperrors.CodeInvalidTransition},
		{"panic", "/api/panic", admin, 503, apperrors.CodeUpstreamFailure},
		{"unknown route", "/nowhere", "", 404, apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, app, tt.path, tt.token)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}

	_, body := call(t, app, "/api/transition", admin)
	assert.EqualValues(t, 7, body.Error.Details["ticket_id"])
	assert.NotEmpty(t, metrics.Snapshot().Errors)
}

func TestAuthenticatedRequest(t *testing.T) {
	app, tokens, _ := newTestApp(t)
	admin, _, err := tokens.GenerateToken(1)
	require.NoError(t, err)

	status, _ := call(t, app, "/api/whoami", admin)
	assert.Equal(t, 200, status)
	status, _ = call(t, app, "/api/admin", admin)
	assert.Equal(t, 200, status)
}
