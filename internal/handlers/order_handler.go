package handlers

import (
	"fmt"

	"resto/internal/apperrors"
	"resto/internal/middleware"
	"resto/internal/models"
	"resto/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// OrderHandler handles customer-facing order requests.
type OrderHandler struct {
	service     *services.OrderService
	auth        middleware.Authenticator
	requireUser fiber.Handler
	log         logrus.FieldLogger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, auth middleware.Authenticator, log logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{
		service:     service,
		auth:        auth,
		requireUser: middleware.RequireUser(auth),
		log:         log,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/orders", h.requireUser, h.HandleCreateOrder)
	router.Get("/me/orders", h.requireUser, h.HandleGetMyOrders)
	router.Get("/orders/:id", h.HandleGetOrderByID)
	router.Post("/orders/:id/pickup-ack", h.requireUser, h.HandlePickupAck)
}

// CreateOrderRequest represents the request body for placing an order.
type CreateOrderRequest struct {
	Items []models.OrderLine `json:"items"`
}

// OrderView is an order with the derived pickupReady flag.
type OrderView struct {
	models.Order
	PickupReady bool `json:"pickupReady"`
}

func toOrderViews(orders []models.Order) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, OrderView{Order: o, PickupReady: o.PickupReady()})
	}
	return views
}

// HandleCreateOrder places an order for the authenticated customer.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}

	// Lines without a positive quantity are ignored.
	lines := make([]models.OrderLine, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity > 0 {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return apperrors.Validation("items array required")
	}

	order, err := h.service.CreateOrder(c.UserContext(), lines, &user.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": order.ID})
}

// HandleGetMyOrders lists the authenticated customer's orders, newest first.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)

	orders, err := h.service.GetOrdersByUser(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(toOrderViews(orders))
}

// HandleGetOrderByID shows one order to its owner or to any merchant.
// Unknown orders are reported before the caller is authenticated. Orders
// without an owner are visible to merchants only.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	order, err := h.service.GetOrder(c.UserContext(), id)
	if err != nil {
		return err
	}

	principal, err := middleware.Authenticate(c, h.auth)
	if err != nil {
		return err
	}
	if principal.Kind == models.PrincipalUser && !order.OwnedBy(principal.User.ID) {
		return fmt.Errorf("order does not belong to you: %w", apperrors.ErrForbidden)
	}
	return c.JSON(OrderView{Order: *order, PickupReady: order.PickupReady()})
}

// HandlePickupAck lets the owning customer confirm they collected the order.
func (h *OrderHandler) HandlePickupAck(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	id, err := paramID(c)
	if err != nil {
		return err
	}

	order, err := h.service.GetOrder(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !order.OwnedBy(user.ID) {
		return fmt.Errorf("order does not belong to you: %w", apperrors.ErrForbidden)
	}

	if err := h.service.MarkPickupNotified(c.UserContext(), id); err != nil {
		return err
	}
	h.log.WithFields(logrus.Fields{"order_id": id, "user_id": user.ID}).Info("Pickup acknowledged")
	return c.JSON(fiber.Map{"message": "acknowledged"})
}
