// Package middleware provides Fiber middleware for bearer-session authentication and rate limiting.
package middleware

import (
	"context"
	"fmt"
	"strings"

	"resto/internal/apperrors"
	"resto/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	localUser      = "user"
	localMerchant  = "merchant"
	localPrincipal = "principal"
)

// Authenticator resolves session tokens to principals.
type Authenticator interface {
	AuthenticateUser(ctx context.Context, token string) (*models.User, error)
	AuthenticateMerchant(ctx context.Context, token string) (*models.Merchant, error)
	ResolvePrincipal(ctx context.Context, token string) (*models.Principal, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", fmt.Errorf("missing bearer token: %w", apperrors.ErrAuth)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("authorization header format must be 'Bearer <token>': %w", apperrors.ErrAuth)
	}
	return strings.TrimSpace(parts[1]), nil
}

// RequireUser only lets requests carrying a customer session through.
func RequireUser(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c)
		if err != nil {
			return err
		}
		user, err := auth.AuthenticateUser(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(localUser, user)
		c.Locals(localPrincipal, &models.Principal{Kind: models.PrincipalUser, User: user})
		return c.Next()
	}
}

// RequireMerchant only lets requests carrying a merchant session through.
func RequireMerchant(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c)
		if err != nil {
			return err
		}
		merchant, err := auth.AuthenticateMerchant(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(localMerchant, merchant)
		c.Locals(localPrincipal, &models.Principal{Kind: models.PrincipalMerchant, Merchant: merchant})
		return c.Next()
	}
}

// RequirePrincipal accepts either kind of session.
func RequirePrincipal(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := Authenticate(c, auth); err != nil {
			return err
		}
		return c.Next()
	}
}

// Authenticate resolves the request's bearer token to either kind of principal
// and stores it for CurrentUser, CurrentMerchant and CurrentPrincipal.
func Authenticate(c *fiber.Ctx, auth Authenticator) (*models.Principal, error) {
	token, err := BearerToken(c)
	if err != nil {
		return nil, err
	}
	principal, err := auth.ResolvePrincipal(c.UserContext(), token)
	if err != nil {
		return nil, err
	}
	switch principal.Kind {
	case models.PrincipalUser:
		c.Locals(localUser, principal.User)
	case models.PrincipalMerchant:
		c.Locals(localMerchant, principal.Merchant)
	}
	c.Locals(localPrincipal, principal)
	return principal, nil
}

// CurrentUser returns the customer stored by RequireUser or Authenticate.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(localUser).(*models.User)
	return user, ok && user != nil
}

// CurrentMerchant returns the merchant stored by RequireMerchant or Authenticate.
func CurrentMerchant(c *fiber.Ctx) (*models.Merchant, bool) {
	merchant, ok := c.Locals(localMerchant).(*models.Merchant)
	return merchant, ok && merchant != nil
}

// CurrentPrincipal returns whichever principal authenticated the request.
func CurrentPrincipal(c *fiber.Ctx) (*models.Principal, bool) {
	principal, ok := c.Locals(localPrincipal).(*models.Principal)
	return principal, ok && principal != nil
}
