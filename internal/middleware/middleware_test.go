package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"resto/internal/apperrors"
	"resto/internal/models"
	"resto/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthenticator is a mock implementation of Authenticator.
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) AuthenticateUser(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthenticator) AuthenticateMerchant(ctx context.Context, token string) (*models.Merchant, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Merchant), args.Error(1)
}

func (m *MockAuthenticator) ResolvePrincipal(ctx context.Context, token string) (*models.Principal, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Principal), args.Error(1)
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			switch {
			case errors.As(err, &fe):
				code = fe.Code
			case errors.Is(err, apperrors.ErrAuth):
				code = fiber.StatusUnauthorized
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
}

func get(t *testing.T, app *fiber.App, authHeader string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestBearerToken(t *testing.T) {
	app := newTestApp()
	app.Get("/", func(c *fiber.Ctx) error {
		token, err := BearerToken(c)
		if err != nil {
			return err
		}
		return c.SendString(token)
	})

	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, ""))
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "Token abc"))
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "Bearer "))
	assert.Equal(t, fiber.StatusOK, get(t, app, "Bearer abc"))
}

func TestRequireUser(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("AuthenticateUser", "good").Return(&models.User{ID: 4, Username: "abcd1234"}, nil)
	auth.On("AuthenticateUser", "merchant-token").Return(nil, fmt.Errorf("session is not bound to a user: %w", apperrors.ErrAuth))

	app := newTestApp()
	app.Get("/", RequireUser(auth), func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		assert.True(t, ok)
		_, isMerchant := CurrentMerchant(c)
		assert.False(t, isMerchant)
		return c.JSON(fiber.Map{"id": user.ID})
	})

	assert.Equal(t, fiber.StatusOK, get(t, app, "Bearer good"))
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "Bearer merchant-token"))
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, ""))
	auth.AssertExpectations(t)
}

func TestRequireMerchant(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("AuthenticateMerchant", "good").Return(&models.Merchant{ID: 2, Username: "owner"}, nil)
	auth.On("AuthenticateMerchant", "bad").Return(nil, apperrors.ErrAuth)

	app := newTestApp()
	app.Get("/", RequireMerchant(auth), func(c *fiber.Ctx) error {
		merchant, ok := CurrentMerchant(c)
		assert.True(t, ok)
		return c.SendString(merchant.Username)
	})

	assert.Equal(t, fiber.StatusOK, get(t, app, "Bearer good"))
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "Bearer bad"))
}

func TestRequirePrincipal(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("ResolvePrincipal", "user").Return(&models.Principal{Kind: models.PrincipalUser, User: &models.User{ID: 1}}, nil)
	auth.On("ResolvePrincipal", "merchant").Return(&models.Principal{Kind: models.PrincipalMerchant, Merchant: &models.Merchant{ID: 9}}, nil)
	auth.On("ResolvePrincipal", "expired").Return(nil, apperrors.ErrAuth)

	app := newTestApp()
	app.Get("/", RequirePrincipal(auth), func(c *fiber.Ctx) error {
		p, ok := CurrentPrincipal(c)
		assert.True(t, ok)
		_, isUser := CurrentUser(c)
		_, isMerchant := CurrentMerchant(c)
		assert.Equal(t, p.Kind == models.PrincipalUser, isUser)
		assert.Equal(t, p.Kind == models.PrincipalMerchant, isMerchant)
		return c.SendStatus(fiber.StatusNoContent)
	})

	assert.Equal(t, fiber.StatusNoContent, get(t, app, "Bearer user"))
	assert.Equal(t, fiber.StatusNoContent, get(t, app, "Bearer merchant"))
	assert.Equal(t, fiber.StatusUnauthorized, get(t, app, "Bearer expired"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, logger.Discard())
	app := newTestApp()
	app.Get("/", rl.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.Equal(t, fiber.StatusOK, get(t, app, ""))
	assert.Equal(t, fiber.StatusOK, get(t, app, ""))
	assert.Equal(t, fiber.StatusTooManyRequests, get(t, app, ""))
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1, logger.Discard())
	now := time.Now()
	rl.allow("10.0.0.1", now.Add(-time.Hour))
	rl.allow("10.0.0.2", now)
	require.Equal(t, 2, rl.size())

	rl.Cleanup(now)
	assert.Equal(t, 1, rl.size())
}
