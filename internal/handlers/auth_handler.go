package handlers

import (
	"errors"
	"time"

	"resto/internal/apperrors"
	"resto/internal/models"
	"resto/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles HTTP requests for registration and login of both principal kinds.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	loginLimit  fiber.Handler
	log         logrus.FieldLogger
}

// NewAuthHandler creates a new AuthHandler. loginLimit guards the login routes and may be nil.
func NewAuthHandler(authService *services.AuthService, loginLimit fiber.Handler, log logrus.FieldLogger) *AuthHandler {
	if loginLimit == nil {
		loginLimit = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		loginLimit:  loginLimit,
		log:         log,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/user/register", h.HandleRegisterUser)
	authRoutes.Post("/user/login", h.loginLimit, h.HandleLoginUser)
	authRoutes.Post("/merchant/register", h.HandleRegisterMerchant)
	authRoutes.Post("/merchant/login", h.loginLimit, h.HandleLoginMerchant)
}

// RegisterUserRequest represents the request body for customer registration.
type RegisterUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// RegisterMerchantRequest represents the request body for merchant registration.
type RegisterMerchantRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	StoreName string `json:"storeName"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleRegisterUser handles new customer registration.
func (h *AuthHandler) HandleRegisterUser(c *fiber.Ctx) error {
	var req RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}

	if err := h.authService.RegisterUser(c.UserContext(), req.Username, req.Password, req.Phone); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "registered"})
}

// HandleRegisterMerchant handles new merchant registration.
func (h *AuthHandler) HandleRegisterMerchant(c *fiber.Ctx) error {
	var req RegisterMerchantRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}

	if err := h.authService.RegisterMerchant(c.UserContext(), req.Username, req.Password, req.StoreName); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "registered"})
}

// HandleLoginUser logs a customer in and returns a session token.
func (h *AuthHandler) HandleLoginUser(c *fiber.Ctx) error {
	req, err := h.parseLogin(c)
	if err != nil {
		return err
	}

	token, err := h.authService.LoginUser(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return h.loginFailed(models.PrincipalUser, req.Username, err)
	}
	return c.JSON(fiber.Map{
		"token":     token.Token,
		"userId":    token.PrincipalID,
		"username":  token.Username,
		"expiresAt": token.ExpiresAt.Format(time.RFC3339),
	})
}

// HandleLoginMerchant logs a merchant in and returns a session token.
func (h *AuthHandler) HandleLoginMerchant(c *fiber.Ctx) error {
	req, err := h.parseLogin(c)
	if err != nil {
		return err
	}

	token, err := h.authService.LoginMerchant(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return h.loginFailed(models.PrincipalMerchant, req.Username, err)
	}
	return c.JSON(fiber.Map{
		"token":      token.Token,
		"merchantId": token.PrincipalID,
		"username":   token.Username,
		"expiresAt":  token.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *AuthHandler) parseLogin(c *fiber.Ctx) (*LoginRequest, error) {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, badBody(err)
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("username/password required")
	}
	return &req, nil
}

// loginFailed reports unknown accounts as 401 alongside wrong passwords.
func (h *AuthHandler) loginFailed(kind models.PrincipalKind, username string, err error) error {
	h.log.WithFields(logrus.Fields{"kind": kind, "username": username}).WithError(err).Info("Login failed")
	if errors.Is(err, apperrors.ErrNotFound) {
		return fiber.NewError(fiber.StatusUnauthorized, "account not found")
	}
	if errors.Is(err, apperrors.ErrAuth) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	return err
}
