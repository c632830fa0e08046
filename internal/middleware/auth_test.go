package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"apega/internal/models"
	"apega/internal/repositories"
	"apega/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[uint]*models.User

func (s stubUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func newApp(tokens *utils.TokenManager, users stubUsers) *fiber.App {
	auth := NewAuthMiddleware(tokens, users, nil)

	app := fiber.New()
	api := app.Group("/api", auth.Handler)
	api.Get("/me", func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"user_id": claims.UserID})
	})
	api.Get("/wallet", HasPermission(models.PermissionWalletRead), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	api.Get("/admin", AdminAuthMiddleware, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func bearer(t *testing.T, tokens *utils.TokenManager, role string, version int) string {
	t.Helper()
	access, _, err := tokens.GenerateTokens(&models.UserClaims{
		UserID:       1,
		Role:         role,
		Permissions:  models.GetDefaultPermissions(role),
		TokenVersion: version,
	})
	require.NoError(t, err)
	return "Bearer " + access
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("test-secret", time.Minute)
	users := stubUsers{1: {TokenVersion: 1, Role: models.RoleUser}}
	app := newApp(tokens, users)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing header", "/api/me", "", fiber.StatusUnauthorized},
		{"not bearer", "/api/me", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "/api/me", "Bearer abc", fiber.StatusUnauthorized},
		{"valid token", "/api/me", bearer(t, tokens, models.RoleUser, 1), fiber.StatusOK},
		{"revoked token", "/api/me", bearer(t, tokens, models.RoleUser, 0), fiber.StatusUnauthorized},
		{"permission granted", "/api/wallet", bearer(t, tokens, models.RoleUser, 1), fiber.StatusOK},
		{"admin only", "/api/admin", bearer(t, tokens, models.RoleUser, 1), fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_UnknownUser(t *testing.T) {
	tokens := utils.NewTokenManager("test-secret", time.Minute)
	app := newApp(tokens, stubUsers{})

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", bearer(t, tokens, models.RoleUser, 1))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_DisabledUser(t *testing.T) {
	tokens := utils.NewTokenManager("test-secret", time.Minute)
	app := newApp(tokens, stubUsers{1: {TokenVersion: 1, Role: models.RoleUser, Status: models.StatusDisabled}})

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", bearer(t, tokens, models.RoleUser, 1))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("test-secret", time.Minute)
	app := newApp(tokens, stubUsers{1: {TokenVersion: 1, Role: models.RoleAdmin}})

	req := httptest.NewRequest("GET", "/api/admin", nil)
	req.Header.Set("Authorization", bearer(t, tokens, models.RoleAdmin, 1))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHasPermission_Denied(t *testing.T) {
	app := fiber.New()
	app.Get("/x", func(c *fiber.Ctx) error {
		c.Locals("claims", &models.UserClaims{Role: "guest"})
		return c.Next()
	}, HasPermission(models.PermissionSettings), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
